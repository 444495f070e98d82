package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breeze-rmm/streamcore/internal/capture"
	"github.com/breeze-rmm/streamcore/internal/codec"
	"github.com/breeze-rmm/streamcore/internal/congestion"
	"github.com/breeze-rmm/streamcore/internal/frame"
	"github.com/breeze-rmm/streamcore/internal/reliability"
	"github.com/breeze-rmm/streamcore/internal/transport"
	"github.com/breeze-rmm/streamcore/internal/wire"
)

// fakeSource always has one frame ready; Start/Stop toggle its active flag.
type fakeSource struct {
	mu     sync.Mutex
	active bool
	data   []byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{data: make([]byte, 4*4*4)}
}

func (f *fakeSource) Start() error { f.mu.Lock(); f.active = true; f.mu.Unlock(); return nil }
func (f *fakeSource) Stop() error  { f.mu.Lock(); f.active = false; f.mu.Unlock(); return nil }
func (f *fakeSource) IsActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}
func (f *fakeSource) Config() capture.Config { return capture.Config{Mode: capture.ModePrimaryMonitor} }
func (f *fakeSource) GetFrame() (*frame.Raw, bool) {
	return &frame.Raw{Width: 4, Height: 4, Data: f.data}, true
}

// fakeConn is an in-memory transport.Connection: Send appends to outbox,
// Receive drains an inbox channel fed by the test.
type fakeConn struct {
	mu     sync.Mutex
	outbox []wire.Message
	inbox  chan wire.Message
	stats  transport.Stats
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbox: make(chan wire.Message, 16)}
}

func (c *fakeConn) Connect(ctx context.Context, addr string) error    { return nil }
func (c *fakeConn) Accept(ctx context.Context) (string, error)       { return "fake", nil }
func (c *fakeConn) Close() error                                     { close(c.inbox); return nil }
func (c *fakeConn) State() transport.State                           { return transport.StateConnected }
func (c *fakeConn) Stats() transport.Stats                           { return c.stats }

func (c *fakeConn) Send(ctx context.Context, msg wire.Message) error {
	c.mu.Lock()
	c.outbox = append(c.outbox, msg)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) (wire.Message, error) {
	select {
	case msg, ok := <-c.inbox:
		if !ok {
			return wire.Message{}, transport.ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return wire.Message{}, ctx.Err()
	}
}

func (c *fakeConn) sentVideoFrames() []*wire.VideoFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*wire.VideoFrame
	for _, m := range c.outbox {
		if m.Tag == wire.TagVideoFrame {
			out = append(out, m.VideoFrame)
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T, cc congestion.Controller) (*Orchestrator, *fakeSource, *fakeConn) {
	t.Helper()
	src := newFakeSource()
	conn := newFakeConn()
	enc, err := codec.NewEncoder(codec.DefaultEncoderConfig())
	require.NoError(t, err)
	rel := reliability.New(5)

	o := New(Config{TickInterval: 5 * time.Millisecond, KeyframeEvery: 3}, src, enc, conn, cc, rel, nil)
	return o, src, conn
}

// alwaysSend is a minimal Controller stub that always permits sending,
// used where the test cares about keyframe logic rather than congestion.
type alwaysSend struct{}

func (alwaysSend) OnAck(int)                  {}
func (alwaysSend) OnLoss()                    {}
func (alwaysSend) CanSend(int) bool           { return true }
func (alwaysSend) PacingRate() float64        { return 0 }
func (alwaysSend) UpdateRTT(d time.Duration)  {}
func (alwaysSend) Cwnd() int                  { return 100 }
func (alwaysSend) Algorithm() congestion.Algorithm { return congestion.AIMD }

func TestFirstFrameAfterConnectIsKeyframe(t *testing.T) {
	o, _, conn := newTestOrchestrator(t, alwaysSend{})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = o.Run(ctx)

	frames := conn.sentVideoFrames()
	require.NotEmpty(t, frames)
	assert.True(t, frames[0].IsKeyframe)
}

func TestKeyframeEveryNFrames(t *testing.T) {
	o, _, conn := newTestOrchestrator(t, alwaysSend{})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	_ = o.Run(ctx)

	frames := conn.sentVideoFrames()
	require.GreaterOrEqual(t, len(frames), 4)
	assert.True(t, frames[0].IsKeyframe)
	assert.True(t, frames[3].IsKeyframe)
	assert.False(t, frames[1].IsKeyframe)
	assert.False(t, frames[2].IsKeyframe)
}

func TestRequestKeyframeControlForcesNextFrame(t *testing.T) {
	o, _, conn := newTestOrchestrator(t, alwaysSend{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(12 * time.Millisecond)
		conn.inbox <- wire.NewControl(wire.RequestKeyframeControlType, nil)
	}()

	_ = o.Run(ctx)
	assert.GreaterOrEqual(t, len(conn.sentVideoFrames()), 1)

	// Frame 1 is not on the KeyframeEvery=3 interval, so only the request
	// can mark it; the request is consumed by that one frame.
	o.framesSinceConnect = 1
	o.handleInbound(wire.NewControl(wire.RequestKeyframeControlType, nil))
	assert.True(t, o.shouldMarkKeyframe())
	assert.False(t, o.shouldMarkKeyframe())
}

// neverSend always blocks sending; Property 8 — backpressure.
type neverSend struct{}

func (neverSend) OnAck(int)                  {}
func (neverSend) OnLoss()                    {}
func (neverSend) CanSend(int) bool           { return false }
func (neverSend) PacingRate() float64        { return 0 }
func (neverSend) UpdateRTT(d time.Duration)  {}
func (neverSend) Cwnd() int                  { return 0 }
func (neverSend) Algorithm() congestion.Algorithm { return congestion.AIMD }

func TestBackpressureBlocksAllVideoFrames(t *testing.T) {
	o, _, conn := newTestOrchestrator(t, neverSend{})

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	_ = o.Run(ctx)

	assert.Empty(t, conn.sentVideoFrames())
	assert.Greater(t, o.Metrics().Snapshot().FramesSkipped, uint64(0))
}

func TestAckAdvancesCongestionAndReliability(t *testing.T) {
	o, _, conn := newTestOrchestrator(t, congestion.New(congestion.AIMD))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		conn.inbox <- wire.NewControl(wire.AckControlType, wire.EncodeAckPayload(0))
	}()

	_ = o.Run(ctx)

	assert.GreaterOrEqual(t, len(conn.sentVideoFrames()), 1)

	// Ack the last frame sent: it leaves the reliability layer's in-flight
	// set and grows the AIMD slow-start window.
	frames := conn.sentVideoFrames()
	require.GreaterOrEqual(t, len(frames), 2)
	last := frames[len(frames)-1].Sequence
	inFlight := o.reliable.InFlight()
	cwnd := o.congestion.Cwnd()
	o.handleAck(wire.EncodeAckPayload(last))
	assert.Equal(t, inFlight-1, o.reliable.InFlight())
	assert.Greater(t, o.congestion.Cwnd(), cwnd)
}

// TestAdaptiveQualityWiredToEncoder checks New's default OnQuality callback
// actually pushes through to the encoder when the caller didn't supply one.
func TestAdaptiveQualityWiredToEncoder(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, alwaysSend{})

	o.adaptive.onQuality(55)
	assert.Equal(t, 55, o.encoder.Config().Quality)
}

// TestAdaptiveFPSWiredToPacedSource checks New's default OnFPS callback is
// set for a source that implements fpsSetter and runs without panicking.
// TestAdaptiveFPSUnwiredWithoutSetter covers a source lacking the interface.
func TestAdaptiveFPSWiredToPacedSource(t *testing.T) {
	src := capture.NewPacedSource(&capture.GradientGenerator{}, capture.Config{TargetFPS: 30}, 4, 4)
	conn := newFakeConn()
	enc, err := codec.NewEncoder(codec.DefaultEncoderConfig())
	require.NoError(t, err)
	rel := reliability.New(5)

	o := New(Config{TickInterval: 5 * time.Millisecond}, src, enc, conn, alwaysSend{}, rel, nil)
	require.NotNil(t, o.adaptive.onFPS)
	assert.NotPanics(t, func() { o.adaptive.onFPS(12) })
}

func TestAdaptiveFPSUnwiredWithoutSetter(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, alwaysSend{}) // fakeSource has no SetTargetFPS
	assert.Nil(t, o.adaptive.onFPS)
}

func TestInputEventDispatchedToSink(t *testing.T) {
	src := newFakeSource()
	conn := newFakeConn()
	enc, err := codec.NewEncoder(codec.DefaultEncoderConfig())
	require.NoError(t, err)
	rel := reliability.New(5)

	sink := &captureSink{}
	o := New(Config{TickInterval: 5 * time.Millisecond}, src, enc, conn, alwaysSend{}, rel, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(5 * time.Millisecond)
		payload := []byte(`{"type":"mouse_move","x":5,"y":9}`)
		conn.inbox <- wire.NewInputEvent(1, payload)
	}()

	_ = o.Run(ctx)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 1, sink.moveCalls)
}

type captureSink struct {
	mu        sync.Mutex
	moveCalls int
}

func (s *captureSink) MouseMove(x, y int) error {
	s.mu.Lock()
	s.moveCalls++
	s.mu.Unlock()
	return nil
}
func (s *captureSink) MouseButton(x, y int, button string, down bool) error { return nil }
func (s *captureSink) MouseScroll(x, y, delta int) error                   { return nil }
func (s *captureSink) KeyPress(key string, modifiers []string) error       { return nil }
func (s *captureSink) KeyButton(key string, down bool) error                { return nil }
