// Package orchestrator couples capture, encoding, transport, congestion
// and reliability into the host-side pipeline: pull a frame, mark it a
// keyframe when required, respect backpressure, encode, send, and
// dispatch whatever comes back (acks, control requests, input events).
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/breeze-rmm/streamcore/internal/capture"
	"github.com/breeze-rmm/streamcore/internal/codec"
	"github.com/breeze-rmm/streamcore/internal/congestion"
	"github.com/breeze-rmm/streamcore/internal/inputsink"
	"github.com/breeze-rmm/streamcore/internal/obslog"
	"github.com/breeze-rmm/streamcore/internal/reliability"
	"github.com/breeze-rmm/streamcore/internal/transport"
	"github.com/breeze-rmm/streamcore/internal/wire"
)

var log = obslog.L("orchestrator")

// Config parameterizes an Orchestrator run.
type Config struct {
	TickInterval    time.Duration // how often to pull a frame from the source
	KeyframeEvery   int           // frames between forced keyframes
	MetricsInterval time.Duration // 0 disables the metrics log loop
	Adaptive        AdaptiveConfig
}

// Orchestrator is the Pipeline Orchestrator: it owns the send loop, the
// receive loop, metrics, and the adaptive control loop for one
// connection's lifetime.
type Orchestrator struct {
	cfg Config

	source     capture.FrameSource
	encoder    *codec.Encoder
	conn       transport.Connection
	congestion congestion.Controller
	reliable   *reliability.Layer
	sink       inputsink.Sink
	adaptive   *Adaptive
	metrics    *Metrics

	events chan Event

	framesSinceConnect uint64
	forceKeyframe      atomic.Bool

	inFlightBytes sync.Mutex
	sentBytes     map[uint64]int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// fpsSetter is implemented by capture sources that support runtime pacing
// changes (capture.PacedSource). Sources that don't are left alone; the
// adaptive loop's FPS target then only affects reported metrics.
type fpsSetter interface {
	SetTargetFPS(fps int)
}

// New builds an Orchestrator. The caller is responsible for having
// already connected or accepted conn before calling Run.
func New(cfg Config, source capture.FrameSource, encoder *codec.Encoder, conn transport.Connection, cc congestion.Controller, reliable *reliability.Layer, sink inputsink.Sink) *Orchestrator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 33 * time.Millisecond
	}
	if cfg.KeyframeEvery <= 0 {
		cfg.KeyframeEvery = 120
	}

	if cfg.Adaptive.OnQuality == nil {
		cfg.Adaptive.OnQuality = func(quality int) {
			current := encoder.Config()
			current.Quality = quality
			if err := encoder.UpdateConfig(current); err != nil {
				log.Warn("adaptive quality update rejected", "quality", quality, "error", err)
			}
		}
	}
	if cfg.Adaptive.OnFPS == nil {
		if setter, ok := source.(fpsSetter); ok {
			cfg.Adaptive.OnFPS = setter.SetTargetFPS
		}
	}

	return &Orchestrator{
		cfg:        cfg,
		source:     source,
		encoder:    encoder,
		conn:       conn,
		congestion: cc,
		reliable:   reliable,
		sink:       sink,
		adaptive:   NewAdaptive(cfg.Adaptive),
		metrics:    newMetrics(),
		events:     make(chan Event, 16),
		sentBytes:  make(map[uint64]int),
		stopCh:     make(chan struct{}),
	}
}

// Events returns the channel TransportEvents are published on. The
// caller must drain it; it is never closed while the orchestrator runs.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Metrics returns the orchestrator's live counters.
func (o *Orchestrator) Metrics() *Metrics { return o.metrics }

// RequestKeyframe marks the next encoded frame as a keyframe.
func (o *Orchestrator) RequestKeyframe() { o.forceKeyframe.Store(true) }

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		log.Warn("event channel full, dropping event", "kind", ev.Kind)
	}
}

// Run starts the source, the send loop, the receive loop, and (if
// configured) the metrics log loop; it blocks until ctx is canceled or
// Stop is called, then tears everything down.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.source.Start(); err != nil {
		return err
	}
	o.emit(Event{Kind: EventConnected})

	o.wg.Add(1)
	go o.sendLoop(ctx)

	o.wg.Add(1)
	go o.receiveLoop(ctx)

	if o.cfg.MetricsInterval > 0 {
		o.wg.Add(1)
		go o.metricsLoop(ctx)
	}

	select {
	case <-ctx.Done():
	case <-o.stopCh:
	}
	o.Stop()
	return ctx.Err()
}

// Stop signals every loop to exit and waits for them, then stops capture.
func (o *Orchestrator) Stop() {
	select {
	case <-o.stopCh:
		// already stopped
	default:
		close(o.stopCh)
	}
	o.wg.Wait()
	_ = o.source.Stop()
}

func (o *Orchestrator) sendLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	raw, ok := o.source.GetFrame()
	if !ok {
		return
	}
	o.metrics.recordCapture()

	inFlight := o.reliable.InFlight()
	if !o.congestion.CanSend(inFlight) {
		o.metrics.recordSkip()
		return
	}

	encoded, err := o.encoder.EncodeFrame(raw.Data, raw.Width, raw.Height)
	if err != nil {
		log.Warn("frame encode failed, dropping", "error", err)
		o.metrics.recordDrop()
		return
	}
	o.metrics.recordEncode(encoded.EncodeDuration, encoded.CompressedSize())

	encoded.IsKeyframe = o.shouldMarkKeyframe()

	if o.framesSinceConnect == 0 {
		info := wire.StreamInfo{Width: encoded.Width, Height: encoded.Height, Format: encoded.Format.String()}
		payload, err := wire.EncodeStreamInfo(info)
		if err != nil {
			log.Warn("stream info encode failed", "error", err)
		} else if err := o.conn.Send(ctx, wire.NewControl(wire.StreamInfoControlType, payload)); err != nil {
			log.Warn("stream info send failed", "error", err)
		}
	}

	seq := o.reliable.NextSequence()
	o.reliable.TrackSent(seq, encoded.Data)
	o.inFlightBytes.Lock()
	o.sentBytes[seq] = len(encoded.Data)
	o.inFlightBytes.Unlock()

	msg := wire.NewVideoFrame(seq, uint64(encoded.TimestampMs), encoded.IsKeyframe, encoded.Data)
	if err := o.conn.Send(ctx, msg); err != nil {
		log.Warn("send failed", "error", err)
		o.emit(Event{Kind: EventError, Err: err})
		return
	}
	o.metrics.recordSend(len(encoded.Data))
	o.framesSinceConnect++
}

func (o *Orchestrator) shouldMarkKeyframe() bool {
	if o.forceKeyframe.CompareAndSwap(true, false) {
		return true
	}
	if o.framesSinceConnect == 0 {
		return true
	}
	return o.framesSinceConnect%uint64(o.cfg.KeyframeEvery) == 0
}

func (o *Orchestrator) receiveLoop(ctx context.Context) {
	defer o.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		default:
		}

		msg, err := o.conn.Receive(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-o.stopCh:
				return
			default:
			}
			log.Warn("receive failed", "error", err)
			o.emit(Event{Kind: EventDisconnected, Reason: err.Error()})
			return
		}
		o.handleInbound(msg)
	}
}

func (o *Orchestrator) handleInbound(msg wire.Message) {
	switch msg.Tag {
	case wire.TagControl:
		o.handleControl(msg.Control)
	case wire.TagInputEvent:
		o.handleInputEvent(msg.InputEvent)
	case wire.TagHeartbeat:
		// liveness only; idle timeout is enforced by the transport.
	default:
		log.Debug("ignoring inbound message on host side", "tag", msg.Tag)
	}
}

func (o *Orchestrator) handleControl(c *wire.Control) {
	switch c.Type {
	case wire.RequestKeyframeControlType:
		o.RequestKeyframe()
	case wire.AckControlType:
		o.handleAck(c.Payload)
	default:
		log.Debug("unrecognized control type", "type", c.Type)
	}
}

func (o *Orchestrator) handleAck(payload []byte) {
	seq, err := wire.DecodeAckPayload(payload)
	if err != nil {
		log.Warn("malformed ack payload", "error", err)
		return
	}
	rtt, ok := o.reliable.ProcessAck(seq)
	if !ok {
		return // late or duplicate ack
	}
	o.reliable.UpdateRTO(rtt)
	o.congestion.UpdateRTT(rtt)

	o.inFlightBytes.Lock()
	acked := o.sentBytes[seq]
	delete(o.sentBytes, seq)
	o.inFlightBytes.Unlock()
	o.congestion.OnAck(acked)

	o.adaptive.Update(rtt, 0)
	o.metrics.setQuality(o.adaptive.Quality())
	o.metrics.setFPS(o.adaptive.FPS())
}

func (o *Orchestrator) handleInputEvent(e *wire.InputEvent) {
	if o.sink == nil {
		return
	}
	ev, err := inputsink.Decode(e.Data)
	if err != nil {
		log.Warn("malformed input event", "error", err)
		return
	}
	if err := inputsink.Dispatch(o.sink, ev); err != nil {
		log.Warn("input dispatch failed", "error", err)
	}
}

func (o *Orchestrator) metricsLoop(ctx context.Context) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			snap := o.metrics.Snapshot()
			log.Info("stream metrics",
				"captured", snap.FramesCaptured,
				"encoded", snap.FramesEncoded,
				"sent", snap.FramesSent,
				"skipped", snap.FramesSkipped,
				"dropped", snap.FramesDropped,
				"encode_ms", snap.EncodeMs,
				"bandwidth_kbps", snap.BandwidthKBps,
				"quality", snap.CurrentQuality,
				"fps", snap.CurrentFPS,
				"uptime", snap.Uptime,
			)
			o.emit(Event{Kind: EventStatsUpdate, Stats: o.conn.Stats()})
		}
	}
}
