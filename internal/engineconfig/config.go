// Package engineconfig loads streamcore's runtime configuration via viper:
// YAML file plus STREAMCORE_-prefixed environment overrides, unmarshaled
// into a single Config struct with tiered validation.
package engineconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	Capture     CaptureConfig     `mapstructure:"capture"`
	Codec       CodecConfig       `mapstructure:"codec"`
	Transport   TransportConfig   `mapstructure:"transport"`
	Congestion  CongestionConfig  `mapstructure:"congestion"`
	Reliability ReliabilityConfig `mapstructure:"reliability"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// CaptureConfig parameterizes the capture source.
type CaptureConfig struct {
	Mode           string `mapstructure:"mode"` // "primary", "single", "all", "selected", "window"
	MonitorIndices []int  `mapstructure:"monitor_indices"`
	WindowID       string `mapstructure:"window_id"`
	TargetFPS      int    `mapstructure:"target_fps"`
	CaptureCursor  bool   `mapstructure:"capture_cursor"`
}

// CodecConfig parameterizes the frame encoder.
type CodecConfig struct {
	Format     string `mapstructure:"format"` // "none", "zlib", "lz4", "zstd"
	Quality    int    `mapstructure:"quality"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

// TransportConfig parameterizes the connection backend.
type TransportConfig struct {
	Protocol           string `mapstructure:"protocol"` // "quic", "webrtc"
	ListenAddr         string `mapstructure:"listen_addr"`
	DialAddr           string `mapstructure:"dial_addr"`
	KeepAliveSeconds   int    `mapstructure:"keep_alive_seconds"`
	IdleTimeoutSeconds int    `mapstructure:"idle_timeout_seconds"`
	InsecureDevTLS     bool   `mapstructure:"insecure_dev_tls"`
	MTU                int    `mapstructure:"mtu"`
}

// CongestionConfig selects and seeds the congestion controller.
type CongestionConfig struct {
	Algorithm string `mapstructure:"algorithm"` // "aimd", "bbr", "cubic"
}

// ReliabilityConfig parameterizes the reliability layer.
type ReliabilityConfig struct {
	MaxRetries uint32 `mapstructure:"max_retries"`
}

// OrchestratorConfig parameterizes pipeline-level policy.
type OrchestratorConfig struct {
	KeyframeInterval      int `mapstructure:"keyframe_interval"`
	MetricsIntervalSeconds int `mapstructure:"metrics_interval_seconds"`
}

// Default returns the engine's default configuration.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Mode:          "primary",
			TargetFPS:     30,
			CaptureCursor: true,
		},
		Codec: CodecConfig{
			Format:     "zlib",
			Quality:    80,
			MaxWorkers: 1,
		},
		Transport: TransportConfig{
			Protocol:           "quic",
			ListenAddr:         "0.0.0.0:9443",
			KeepAliveSeconds:   15,
			IdleTimeoutSeconds: 60,
			MTU:                1200,
		},
		Congestion: CongestionConfig{
			Algorithm: "cubic",
		},
		Reliability: ReliabilityConfig{
			MaxRetries: 5,
		},
		Orchestrator: OrchestratorConfig{
			KeyframeInterval:       120,
			MetricsIntervalSeconds: 10,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads cfgFile (or the platform config dir/"." when empty), applies
// STREAMCORE_-prefixed environment overrides, and validates the result.
// Overrides go through viper's AutomaticEnv with no bound keys and no key
// replacer: a variable overrides only a key the loaded file sets, and a
// nested key is looked up under its dotted name
// (STREAMCORE_CAPTURE.TARGET_FPS, not STREAMCORE_CAPTURE_TARGET_FPS).
// Fatal validation errors block startup; warnings are returned alongside a
// usable Config for the caller to log.
func Load(cfgFile string) (*Config, []error, error) {
	cfg := Default()
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("streamcore")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STREAMCORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, err
	}

	result := cfg.ValidateTiered()
	if result.HasFatals() {
		return nil, result.Warnings, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}
	return cfg, result.Warnings, nil
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "StreamCore")
	case "darwin":
		return "/Library/Application Support/StreamCore"
	default:
		return "/etc/streamcore"
	}
}
