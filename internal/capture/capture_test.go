package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breeze-rmm/streamcore/internal/monitor"
)

func TestResolveRectPrimaryMonitor(t *testing.T) {
	desktop, err := monitor.NewVirtualDesktop([]monitor.Monitor{
		{IsPrimary: true, Bounds: monitor.Bounds{Width: 1920, Height: 1080}},
		{Bounds: monitor.Bounds{X: 1920, Width: 1920, Height: 1080}},
	})
	require.NoError(t, err)

	cfg := Config{Mode: ModePrimaryMonitor}
	rect, err := cfg.ResolveRect(desktop)
	require.NoError(t, err)
	assert.Equal(t, monitor.Bounds{Width: 1920, Height: 1080}, rect)
}

func TestResolveRectAllMonitors(t *testing.T) {
	desktop, err := monitor.NewVirtualDesktop([]monitor.Monitor{
		{IsPrimary: true, Bounds: monitor.Bounds{Width: 1920, Height: 1080}},
		{Bounds: monitor.Bounds{X: 1920, Width: 1920, Height: 1080}},
	})
	require.NoError(t, err)

	cfg := Config{Mode: ModeAllMonitors}
	rect, err := cfg.ResolveRect(desktop)
	require.NoError(t, err)
	assert.Equal(t, monitor.Bounds{Width: 3840, Height: 1080}, rect)
}

func TestResolveRectSelectedMonitorsOutOfRange(t *testing.T) {
	desktop, err := monitor.NewVirtualDesktop([]monitor.Monitor{
		{IsPrimary: true, Bounds: monitor.Bounds{Width: 1920, Height: 1080}},
	})
	require.NoError(t, err)

	cfg := Config{Mode: ModeSelectedMonitors, MonitorIndices: []int{0, 5}}
	_, err = cfg.ResolveRect(desktop)
	require.Error(t, err)
}

// Property 7: idempotence — a second Start on an active source fails, and a
// second Stop on an inactive source fails.
func TestPacedSourceIdempotentStartStop(t *testing.T) {
	src := NewPacedSource(&GradientGenerator{}, Config{TargetFPS: 1000}, 4, 4)

	require.NoError(t, src.Start())
	assert.ErrorIs(t, src.Start(), ErrAlreadyCapturing)

	require.NoError(t, src.Stop())
	assert.ErrorIs(t, src.Stop(), ErrNotCapturing)
}

// The single-slot buffer drops undelivered frames: a consumer that sleeps
// through several capture ticks only ever sees the most recent frame, and
// never observes a backlog.
func TestPacedSourceLossyBuffer(t *testing.T) {
	src := NewPacedSource(&GradientGenerator{}, Config{TargetFPS: 500}, 2, 2)
	require.NoError(t, src.Start())
	defer src.Stop()

	time.Sleep(50 * time.Millisecond) // many ticks at 500fps

	f, ok := src.GetFrame()
	require.True(t, ok)
	assert.Equal(t, 2, f.Width)

	// Slot was drained; an immediate re-read with no elapsed tick sees nothing.
	_, ok = src.GetFrame()
	assert.False(t, ok)
}

// SetTargetFPS changes the live pacing cadence without a restart, and
// ignores non-positive values.
func TestPacedSourceSetTargetFPSChangesCadence(t *testing.T) {
	src := NewPacedSource(&GradientGenerator{}, Config{TargetFPS: 5}, 2, 2)
	assert.Equal(t, 5, src.targetFPS())

	src.SetTargetFPS(200)
	assert.Equal(t, 200, src.targetFPS())

	src.SetTargetFPS(0)
	assert.Equal(t, 200, src.targetFPS()) // non-positive is ignored

	src.SetTargetFPS(-5)
	assert.Equal(t, 200, src.targetFPS())
}

func TestGradientGeneratorProducesExpectedSize(t *testing.T) {
	gen := &GradientGenerator{}
	f, err := gen.Generate(16, 8)
	require.NoError(t, err)
	assert.Len(t, f.Data, 16*8*4)
	assert.Equal(t, byte(255), f.Data[3]) // alpha channel
}
