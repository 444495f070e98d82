package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/streamcore/internal/codec"
	"github.com/breeze-rmm/streamcore/internal/engineconfig"
	"github.com/breeze-rmm/streamcore/internal/frame"
	"github.com/breeze-rmm/streamcore/internal/obslog"
	"github.com/breeze-rmm/streamcore/internal/transport"
	"github.com/breeze-rmm/streamcore/internal/wire"
)

var dialAddr string

var dialCmd = &cobra.Command{
	Use:   "dial [address]",
	Short: "Connect to a streamcore host, decode incoming frames, and print stats",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		addr := dialAddr
		if len(args) == 1 {
			addr = args[0]
		}
		dialHost(addr)
	},
}

func init() {
	dialCmd.Flags().StringVar(&dialAddr, "addr", "", "host address to dial")
}

func dialHost(addr string) {
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

	if addr == "" {
		addr = cfg.Transport.DialAddr
	}
	if addr == "" {
		fmt.Fprintln(os.Stderr, "dial requires an address (--addr or transport.dial_addr in config)")
		os.Exit(1)
	}

	tcfg := transport.Config{
		Protocol:       parseProtocol(cfg.Transport.Protocol),
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := conn.Connect(ctx, addr); err != nil {
		log.Error("connect failed", "error", err)
		os.Exit(1)
	}
	log.Info("connected", "addr", addr)
	defer conn.Close()

	decoder := codec.NewDecoder()
	var info wire.StreamInfo
	var frames, bytes int

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("frames=%d bytes=%d\n", frames, bytes)
			return
		default:
		}

		msg, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Printf("frames=%d bytes=%d\n", frames, bytes)
				return
			}
			log.Warn("receive failed", "error", err)
			continue
		}

		switch msg.Tag {
		case wire.TagControl:
			if msg.Control.Type == wire.StreamInfoControlType {
				got, err := wire.DecodeStreamInfo(msg.Control.Payload)
				if err != nil {
					log.Warn("bad stream info", "error", err)
					continue
				}
				info = got
				log.Info("stream info", "width", info.Width, "height", info.Height, "format", info.Format)
			}
		case wire.TagVideoFrame:
			if info.Width == 0 || info.Height == 0 {
				continue // haven't received stream_info yet
			}
			enc := &frame.Encoded{
				Data:         msg.VideoFrame.Data,
				Width:        info.Width,
				Height:       info.Height,
				Format:       parseCodecFormat(info.Format),
				OriginalSize: frame.ExpectedRawSize(info.Width, info.Height),
				IsKeyframe:   msg.VideoFrame.IsKeyframe,
			}
			dec, err := decoder.DecodeFrame(enc)
			if err != nil {
				log.Warn("decode failed", "error", err)
				continue
			}
			frames++
			bytes += len(dec.Data)

			ack := wire.NewControl(wire.AckControlType, wire.EncodeAckPayload(msg.VideoFrame.Sequence))
			if err := conn.Send(ctx, ack); err != nil {
				log.Warn("ack send failed", "error", err)
			}
		}
	}
}
