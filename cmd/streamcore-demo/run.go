package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/streamcore/internal/capture"
	"github.com/breeze-rmm/streamcore/internal/codec"
	"github.com/breeze-rmm/streamcore/internal/congestion"
	"github.com/breeze-rmm/streamcore/internal/engineconfig"
	"github.com/breeze-rmm/streamcore/internal/frame"
	"github.com/breeze-rmm/streamcore/internal/inputsink"
	"github.com/breeze-rmm/streamcore/internal/monitor"
	"github.com/breeze-rmm/streamcore/internal/obslog"
	"github.com/breeze-rmm/streamcore/internal/orchestrator"
	"github.com/breeze-rmm/streamcore/internal/reliability"
	"github.com/breeze-rmm/streamcore/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Host a stream: capture, encode, and wait for a viewer to connect",
	Run: func(cmd *cobra.Command, args []string) {
		runHost()
	},
}

func runHost() {
	cfg, warnings, err := engineconfig.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	initLogging(cfg.LogFormat, cfg.LogLevel)
	log := obslog.L("main")

	for _, w := range warnings {
		log.Warn("config warning", "error", w)
	}

	desktop, err := monitor.GetVirtualDesktop()
	if err != nil {
		log.Error("failed to enumerate monitors", "error", err)
		os.Exit(1)
	}

	captureCfg := capture.Config{
		Mode:          parseCaptureMode(cfg.Capture.Mode),
		MonitorIndices: cfg.Capture.MonitorIndices,
		TargetFPS:     cfg.Capture.TargetFPS,
		CaptureCursor: cfg.Capture.CaptureCursor,
	}
	rect, err := captureCfg.ResolveRect(desktop)
	if err != nil {
		log.Error("failed to resolve capture rect", "error", err)
		os.Exit(1)
	}

	source := capture.NewPacedSource(&capture.GradientGenerator{}, captureCfg, rect.Width, rect.Height)

	encoder, err := codec.NewEncoder(codec.EncoderConfig{
		Format:     parseCodecFormat(cfg.Codec.Format),
		Quality:    cfg.Codec.Quality,
		MaxWorkers: cfg.Codec.MaxWorkers,
	})
	if err != nil {
		log.Error("invalid codec config", "error", err)
		os.Exit(1)
	}

	tcfg := transport.Config{
		Protocol:       parseProtocol(cfg.Transport.Protocol),
		ListenAddr:     cfg.Transport.ListenAddr,
		KeepAlive:      time.Duration(cfg.Transport.KeepAliveSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.Transport.IdleTimeoutSeconds) * time.Second,
		InsecureDevTLS: cfg.Transport.InsecureDevTLS,
		MTU:            cfg.Transport.MTU,
	}
	conn, err := transport.New(tcfg)
	if err != nil {
		log.Error("invalid transport config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("waiting for viewer", "addr", cfg.Transport.ListenAddr, "protocol", tcfg.Protocol)
	peer, err := conn.Accept(ctx)
	if err != nil {
		log.Error("accept failed", "error", err)
		os.Exit(1)
	}
	log.Info("viewer connected", "peer", peer)

	orch := orchestrator.New(orchestrator.Config{
		TickInterval:    time.Second / time.Duration(maxInt(cfg.Capture.TargetFPS, 1)),
		KeyframeEvery:   cfg.Orchestrator.KeyframeInterval,
		MetricsInterval: time.Duration(cfg.Orchestrator.MetricsIntervalSeconds) * time.Second,
		Adaptive: orchestrator.AdaptiveConfig{
			MaxFPS: cfg.Capture.TargetFPS,
		},
	}, source, encoder, conn, congestion.New(parseAlgorithm(cfg.Congestion.Algorithm)), reliability.New(cfg.Reliability.MaxRetries), inputsink.LoggingSink{})

	go func() {
		for ev := range orch.Events() {
			log.Debug("transport event", "kind", ev.Kind, "reason", ev.Reason)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	if err := orch.Run(ctx); err != nil && err != context.Canceled {
		log.Error("orchestrator stopped with error", "error", err)
	}
	_ = conn.Close()
}

func parseCaptureMode(s string) capture.Mode {
	switch s {
	case "single":
		return capture.ModeSingleMonitor
	case "all":
		return capture.ModeAllMonitors
	case "selected":
		return capture.ModeSelectedMonitors
	case "window":
		return capture.ModeWindow
	default:
		return capture.ModePrimaryMonitor
	}
}

func parseCodecFormat(s string) frame.Format {
	switch s {
	case "none":
		return frame.FormatNone
	case "lz4":
		return frame.FormatLZ4
	case "zstd":
		return frame.FormatZstd
	default:
		return frame.FormatZlib
	}
}

func parseProtocol(s string) transport.Protocol {
	if s == "webrtc" {
		return transport.ProtocolWebRTC
	}
	return transport.ProtocolQUIC
}

func parseAlgorithm(s string) congestion.Algorithm {
	switch s {
	case "bbr":
		return congestion.BBR
	case "cubic":
		return congestion.CUBIC
	default:
		return congestion.AIMD
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
