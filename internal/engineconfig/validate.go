package engineconfig

import "fmt"

var validCodecFormats = map[string]bool{"none": true, "zlib": true, "lz4": true, "zstd": true}
var validCongestionAlgorithms = map[string]bool{"aimd": true, "bbr": true, "cubic": true}
var validTransportProtocols = map[string]bool{"quic": true, "webrtc": true}
var validCaptureModes = map[string]bool{"primary": true, "single": true, "all": true, "selected": true, "window": true}
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}

// TieredResult splits validation failures into fatal (block startup) and
// warning (logged, then clamped to a safe value) buckets.
type TieredResult struct {
	Fatals   []error
	Warnings []error
}

// HasFatals reports whether any fatal error was recorded.
func (r TieredResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// ValidateTiered checks c for invalid values, clamping anything that would
// otherwise panic downstream (e.g. a zero FPS driving a zero frame
// duration) to a safe default and recording it as a warning. Structurally
// broken values — an unknown codec format, an unroutable protocol — are
// fatal since there's no safe default to fall back to.
func (c *Config) ValidateTiered() TieredResult {
	var r TieredResult

	if c.Capture.TargetFPS < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("capture.target_fps %d is below minimum 1, clamping", c.Capture.TargetFPS))
		c.Capture.TargetFPS = 1
	} else if c.Capture.TargetFPS > 240 {
		r.Warnings = append(r.Warnings, fmt.Errorf("capture.target_fps %d exceeds maximum 240, clamping", c.Capture.TargetFPS))
		c.Capture.TargetFPS = 240
	}
	if !validCaptureModes[c.Capture.Mode] {
		r.Fatals = append(r.Fatals, fmt.Errorf("capture.mode %q is not one of primary/single/all/selected/window", c.Capture.Mode))
	}

	if c.Codec.Quality < 0 || c.Codec.Quality > 100 {
		r.Fatals = append(r.Fatals, fmt.Errorf("codec.quality %d must be in [0, 100]", c.Codec.Quality))
	}
	if c.Codec.MaxWorkers < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("codec.max_workers %d is below minimum 1, clamping", c.Codec.MaxWorkers))
		c.Codec.MaxWorkers = 1
	}
	if !validCodecFormats[c.Codec.Format] {
		r.Fatals = append(r.Fatals, fmt.Errorf("codec.format %q is not one of none/zlib/lz4/zstd", c.Codec.Format))
	}

	if !validTransportProtocols[c.Transport.Protocol] {
		r.Fatals = append(r.Fatals, fmt.Errorf("transport.protocol %q is not one of quic/webrtc", c.Transport.Protocol))
	}
	if c.Transport.IdleTimeoutSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("transport.idle_timeout_seconds %d is below minimum 1, clamping", c.Transport.IdleTimeoutSeconds))
		c.Transport.IdleTimeoutSeconds = 60
	}
	if c.Transport.KeepAliveSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("transport.keep_alive_seconds %d is below minimum 1, clamping", c.Transport.KeepAliveSeconds))
		c.Transport.KeepAliveSeconds = 15
	}
	if c.Transport.MTU < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("transport.mtu %d is below minimum 1, clamping", c.Transport.MTU))
		c.Transport.MTU = 1200
	}

	if !validCongestionAlgorithms[c.Congestion.Algorithm] {
		r.Fatals = append(r.Fatals, fmt.Errorf("congestion.algorithm %q is not one of aimd/bbr/cubic", c.Congestion.Algorithm))
	}

	if c.Reliability.MaxRetries < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("reliability.max_retries %d is below minimum 1, clamping", c.Reliability.MaxRetries))
		c.Reliability.MaxRetries = 1
	}

	if c.Orchestrator.KeyframeInterval < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("orchestrator.keyframe_interval %d is below minimum 1, clamping", c.Orchestrator.KeyframeInterval))
		c.Orchestrator.KeyframeInterval = 1
	}
	if c.Orchestrator.MetricsIntervalSeconds < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("orchestrator.metrics_interval_seconds %d is below minimum 1, clamping", c.Orchestrator.MetricsIntervalSeconds))
		c.Orchestrator.MetricsIntervalSeconds = 10
	}

	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error), defaulting to info", c.LogLevel))
		c.LogLevel = "info"
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json), defaulting to text", c.LogFormat))
		c.LogFormat = "text"
	}

	return r
}
