package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveDegradesUnderSustainedLoss(t *testing.T) {
	var gotQuality, gotFPS int
	a := NewAdaptive(AdaptiveConfig{
		MinQuality: 20, MaxQuality: 100, MinFPS: 10, MaxFPS: 60,
		Cooldown:  0,
		OnQuality: func(q int) { gotQuality = q },
		OnFPS:     func(f int) { gotFPS = f },
	})
	start := a.Quality()

	for i := 0; i < 4; i++ {
		a.Update(50*time.Millisecond, 0.10)
	}

	require.NotZero(t, gotQuality)
	assert.Less(t, a.Quality(), start)
	assert.LessOrEqual(t, a.FPS(), 60)
	assert.GreaterOrEqual(t, gotFPS, 10)
}

func TestAdaptiveUpgradesAfterStableSamples(t *testing.T) {
	a := NewAdaptive(AdaptiveConfig{MinQuality: 20, MaxQuality: 100, MaxFPS: 60, Cooldown: 0})
	now := time.Now()
	a.now = func() time.Time { return now }
	start := a.Quality()

	// Cooldown 0 selects the 500ms default, so step the clock past it.
	for i := 0; i < 8; i++ {
		now = now.Add(time.Second)
		a.Update(10*time.Millisecond, 0.0)
	}

	assert.Greater(t, a.Quality(), start)
}

func TestAdaptiveClampsLossToValidRange(t *testing.T) {
	a := NewAdaptive(AdaptiveConfig{MinQuality: 20, MaxQuality: 100, MaxFPS: 60, Cooldown: 0})
	assert.NotPanics(t, func() {
		a.Update(10*time.Millisecond, -1)
		a.Update(10*time.Millisecond, 2)
	})
	// -1 clamps to 0 and 2 clamps to 1: EWMA = 0.3*1 + 0.7*0.
	assert.InDelta(t, 0.3, a.smoothedLoss, 1e-9)
}
