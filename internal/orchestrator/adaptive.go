package orchestrator

import (
	"sync"
	"time"
)

// minBitsPerFrame is the minimum bits a frame should get to stay legible
// for screen content. Update does not read it: FPS is scaled linearly
// with quality between MinFPS and MaxFPS instead.
const minBitsPerFrame = 40_000

const ewmaAlpha = 0.3

// AdaptiveConfig parameterizes an adaptive loop instance.
type AdaptiveConfig struct {
	MinQuality int // 0-100, floor for Encoder.Quality
	MaxQuality int
	MaxFPS     int
	MinFPS     int
	Cooldown   time.Duration
	OnQuality  func(int) // invoked when quality changes
	OnFPS      func(int) // invoked when target FPS changes
}

// Adaptive adjusts encoder quality and capture FPS from EWMA-smoothed
// RTT/loss samples using an AIMD-style bitrate controller layered on top
// of periodic network stats, independent of the transport's own
// congestion window.
type Adaptive struct {
	mu sync.Mutex

	minQuality, maxQuality int
	minFPS, maxFPS         int
	cooldown               time.Duration
	onQuality              func(int)
	onFPS                  func(int)

	lastAdjust time.Time

	currentQuality int
	currentFPS     int

	smoothedLoss float64
	smoothedRTT  time.Duration
	samples      int
	stableCount  int

	now func() time.Time
}

// NewAdaptive builds an Adaptive loop starting at the midpoint of the
// quality range and MaxFPS.
func NewAdaptive(cfg AdaptiveConfig) *Adaptive {
	minQ, maxQ := cfg.MinQuality, cfg.MaxQuality
	if minQ == 0 && maxQ == 0 {
		minQ, maxQ = 20, 100
	}
	maxFPS := cfg.MaxFPS
	if maxFPS <= 0 {
		maxFPS = 60
	}
	minFPS := cfg.MinFPS
	if minFPS <= 0 {
		minFPS = 10
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = 500 * time.Millisecond
	}

	return &Adaptive{
		minQuality:     minQ,
		maxQuality:     maxQ,
		minFPS:         minFPS,
		maxFPS:         maxFPS,
		cooldown:       cooldown,
		onQuality:      cfg.OnQuality,
		onFPS:          cfg.OnFPS,
		currentQuality: (minQ + maxQ) / 2,
		currentFPS:     maxFPS,
		now:            time.Now,
	}
}

// Update feeds a new RTT/loss sample and adjusts quality/FPS using AIMD:
// multiplicative decrease on sustained loss, additive increase on
// sustained clean samples, gated by a cooldown and a stable-sample streak
// to avoid oscillation.
func (a *Adaptive) Update(rtt time.Duration, packetLoss float64) {
	if packetLoss < 0 {
		packetLoss = 0
	}
	if packetLoss > 1 {
		packetLoss = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.updateEWMA(rtt, packetLoss)

	if !a.lastAdjust.IsZero() && now.Sub(a.lastAdjust) < a.cooldown {
		return
	}
	if a.samples < 3 {
		return
	}

	loss := a.smoothedLoss
	rttSmooth := a.smoothedRTT

	degrade := loss >= 0.05 || (rttSmooth >= 300*time.Millisecond && loss >= 0.02)
	upgrade := loss <= 0.01

	if degrade {
		a.stableCount = 0
	} else if upgrade {
		a.stableCount++
	} else if a.stableCount > 0 {
		a.stableCount--
	}

	const stableRequired = 2
	newQuality := a.currentQuality

	if degrade {
		newQuality = clampInt(int(float64(newQuality)*0.70), a.minQuality, a.maxQuality)
	} else if a.stableCount >= stableRequired && a.currentQuality < a.maxQuality {
		step := (a.maxQuality - a.minQuality) / 20
		if step < 1 {
			step = 1
		}
		newQuality = clampInt(newQuality+step, a.minQuality, a.maxQuality)
		a.stableCount = 0
	}

	qualityRange := a.maxQuality - a.minQuality
	newFPS := a.maxFPS
	if qualityRange > 0 {
		scaled := a.minFPS + (newQuality-a.minQuality)*(a.maxFPS-a.minFPS)/qualityRange
		newFPS = clampInt(scaled, a.minFPS, a.maxFPS)
	}

	if newQuality == a.currentQuality && newFPS == a.currentFPS {
		return
	}

	a.currentQuality = newQuality
	a.currentFPS = newFPS
	a.lastAdjust = now

	if a.onQuality != nil {
		a.onQuality(newQuality)
	}
	if a.onFPS != nil {
		a.onFPS(newFPS)
	}
}

func (a *Adaptive) updateEWMA(rtt time.Duration, loss float64) {
	a.samples++
	if a.samples == 1 {
		a.smoothedLoss = loss
		a.smoothedRTT = rtt
		return
	}
	a.smoothedLoss = ewmaAlpha*loss + (1-ewmaAlpha)*a.smoothedLoss
	a.smoothedRTT = time.Duration(ewmaAlpha*float64(rtt) + (1-ewmaAlpha)*float64(a.smoothedRTT))
}

// Quality returns the current target encoder quality.
func (a *Adaptive) Quality() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentQuality
}

// FPS returns the current target capture FPS.
func (a *Adaptive) FPS() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentFPS
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
