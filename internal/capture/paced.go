package capture

import (
	"sync"
	"time"

	"github.com/breeze-rmm/streamcore/internal/frame"
)

// Generator produces one raw BGRA frame per call. Implementations are the
// platform-specific collaborators (GDI/DXGI, X11/Wayland, CoreGraphics);
// PacedSource only owns when Generate is called and how its output is
// buffered.
type Generator interface {
	Generate(width, height int) (*frame.Raw, error)
}

// PacedSource wraps a Generator with the pacing and single-slot
// lossy-buffer semantics every FrameSource must provide: a dedicated
// goroutine runs the capture cadence, and GetFrame atomically takes
// whatever is in the slot, dropping silently if the consumer falls behind.
type PacedSource struct {
	gen    Generator
	cfg    Config
	width  int
	height int

	mu     sync.Mutex
	slot   *frame.Raw
	active bool
	fps    int
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPacedSource builds a PacedSource that captures width x height frames
// from gen according to cfg.
func NewPacedSource(gen Generator, cfg Config, width, height int) *PacedSource {
	fps := cfg.TargetFPS
	if fps <= 0 {
		fps = 30
	}
	return &PacedSource{gen: gen, cfg: cfg, width: width, height: height, fps: fps}
}

// SetTargetFPS changes the capture cadence the run loop paces against.
// Takes effect from the next frame onward; safe to call while active.
func (p *PacedSource) SetTargetFPS(fps int) {
	if fps <= 0 {
		return
	}
	p.mu.Lock()
	p.fps = fps
	p.mu.Unlock()
}

func (p *PacedSource) targetFPS() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fps
}

// Start launches the capture goroutine. Idempotent failure on double-start.
func (p *PacedSource) Start() error {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return ErrAlreadyCapturing
	}
	p.active = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.run()
	return nil
}

// Stop halts the capture goroutine and waits for it to exit.
func (p *PacedSource) Stop() error {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return ErrNotCapturing
	}
	stopCh := p.stopCh
	doneCh := p.doneCh
	p.mu.Unlock()

	close(stopCh)
	<-doneCh

	p.mu.Lock()
	p.active = false
	p.slot = nil
	p.mu.Unlock()
	return nil
}

// IsActive reports whether the capture goroutine is running.
func (p *PacedSource) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Config returns the source's configuration.
func (p *PacedSource) Config() Config {
	return p.cfg
}

// GetFrame returns the latest buffered frame, if any, clearing the slot.
// Non-blocking: a consumer that calls twice between captures gets the
// frame once, then (nil, false).
func (p *PacedSource) GetFrame() (*frame.Raw, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.slot
	p.slot = nil
	if f == nil {
		return nil, false
	}
	return f, true
}

// run is the dedicated capture goroutine. Each iteration measures elapsed
// time since frame start and sleeps the remainder of 1/target_fps; if
// capture took longer than the budget, the next frame begins immediately
// with no catch-up burst. The target FPS is re-read every iteration so
// SetTargetFPS takes effect without restarting capture.
func (p *PacedSource) run() {
	defer close(p.doneCh)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		start := time.Now()
		f, err := p.gen.Generate(p.width, p.height)
		if err == nil && f != nil {
			f.CapturedAt = start
			p.mu.Lock()
			p.slot = f
			p.mu.Unlock()
		}

		budget := time.Second / time.Duration(p.targetFPS())
		elapsed := time.Since(start)
		remaining := budget - elapsed
		if remaining <= 0 {
			continue
		}

		select {
		case <-p.stopCh:
			return
		case <-time.After(remaining):
		}
	}
}
