package orchestrator

import (
	"sync"
	"time"
)

// Metrics tracks real-time counters for one orchestrator run, mirroring
// the shape of a session's stream statistics panel.
type Metrics struct {
	mu sync.RWMutex

	FramesCaptured uint64
	FramesEncoded  uint64
	FramesSent     uint64
	FramesSkipped  uint64 // skipped by backpressure; an empty capture slot is not counted
	FramesDropped  uint64 // encode failures

	LastEncodeTime time.Duration
	LastFrameSize  int
	TotalBytesSent uint64
	CurrentQuality int
	CurrentFPS     int

	startTime time.Time
}

func newMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) recordCapture() {
	m.mu.Lock()
	m.FramesCaptured++
	m.mu.Unlock()
}

func (m *Metrics) recordSkip() {
	m.mu.Lock()
	m.FramesSkipped++
	m.mu.Unlock()
}

func (m *Metrics) recordEncode(d time.Duration, size int) {
	m.mu.Lock()
	m.FramesEncoded++
	m.LastEncodeTime = d
	m.LastFrameSize = size
	m.mu.Unlock()
}

func (m *Metrics) recordDrop() {
	m.mu.Lock()
	m.FramesDropped++
	m.mu.Unlock()
}

func (m *Metrics) recordSend(size int) {
	m.mu.Lock()
	m.FramesSent++
	m.TotalBytesSent += uint64(size)
	m.mu.Unlock()
}

func (m *Metrics) setQuality(q int) {
	m.mu.Lock()
	m.CurrentQuality = q
	m.mu.Unlock()
}

func (m *Metrics) setFPS(fps int) {
	m.mu.Lock()
	m.CurrentFPS = fps
	m.mu.Unlock()
}

// Snapshot is a point-in-time copy of Metrics suitable for logging.
type Snapshot struct {
	FramesCaptured uint64
	FramesEncoded  uint64
	FramesSent     uint64
	FramesSkipped  uint64
	FramesDropped  uint64
	EncodeMs       float64
	LastFrameSize  int
	BandwidthKBps  float64
	CurrentQuality int
	CurrentFPS     int
	Uptime         time.Duration
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.startTime)
	bw := float64(0)
	if uptime.Seconds() > 0 {
		bw = float64(m.TotalBytesSent) / uptime.Seconds() / 1024.0
	}

	return Snapshot{
		FramesCaptured: m.FramesCaptured,
		FramesEncoded:  m.FramesEncoded,
		FramesSent:     m.FramesSent,
		FramesSkipped:  m.FramesSkipped,
		FramesDropped:  m.FramesDropped,
		EncodeMs:       float64(m.LastEncodeTime.Microseconds()) / 1000.0,
		LastFrameSize:  m.LastFrameSize,
		BandwidthKBps:  bw,
		CurrentQuality: m.CurrentQuality,
		CurrentFPS:     m.CurrentFPS,
		Uptime:         uptime,
	}
}
