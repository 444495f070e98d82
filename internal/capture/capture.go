// Package capture defines the FrameSource contract the pipeline pulls raw
// frames from, plus a paced driver that turns any Generator into a
// FrameSource with single-slot lossy buffering. Platform-specific pixel
// acquisition is an external collaborator; this package only owns cadence
// and the producer/consumer handoff.
package capture

import (
	"errors"
	"fmt"

	"github.com/breeze-rmm/streamcore/internal/frame"
	"github.com/breeze-rmm/streamcore/internal/monitor"
)

// ErrAlreadyCapturing is returned by Start on an already-active source.
var ErrAlreadyCapturing = errors.New("capture: already capturing")

// ErrNotCapturing is returned by Stop on an inactive source.
var ErrNotCapturing = errors.New("capture: not capturing")

// ErrUnsupported is returned when the requested platform capture backend
// doesn't exist on this build.
var ErrUnsupported = errors.New("capture: not supported on this platform")

// Mode selects which region of the virtual desktop a FrameSource captures.
type Mode int

const (
	ModePrimaryMonitor Mode = iota
	ModeSingleMonitor
	ModeAllMonitors
	ModeSelectedMonitors
	ModeWindow
)

// Config parameterizes a FrameSource.
type Config struct {
	Mode            Mode
	MonitorIndices  []int // used by ModeSingleMonitor (first element) and ModeSelectedMonitors
	WindowID        string
	TargetFPS       int
	CaptureCursor   bool
}

// DefaultConfig returns a primary-monitor capture at 30 FPS with cursor
// capture enabled.
func DefaultConfig() Config {
	return Config{Mode: ModePrimaryMonitor, TargetFPS: 30, CaptureCursor: true}
}

// ResolveRect computes the source rectangle Config.Mode implies against a
// VirtualDesktop. ModeWindow has no desktop-geometry answer here; platform
// backends resolve it against the native window manager instead.
func (c Config) ResolveRect(desktop *monitor.VirtualDesktop) (monitor.Bounds, error) {
	switch c.Mode {
	case ModePrimaryMonitor:
		return desktop.PrimaryMonitor().Bounds, nil
	case ModeSingleMonitor:
		if len(c.MonitorIndices) == 0 {
			return monitor.Bounds{}, fmt.Errorf("capture: SingleMonitor requires one index")
		}
		m, ok := desktop.Monitor(c.MonitorIndices[0])
		if !ok {
			return monitor.Bounds{}, fmt.Errorf("capture: monitor index %d out of range", c.MonitorIndices[0])
		}
		return m.Bounds, nil
	case ModeAllMonitors:
		return desktop.TotalBounds, nil
	case ModeSelectedMonitors:
		if len(c.MonitorIndices) == 0 {
			return monitor.Bounds{}, fmt.Errorf("capture: SelectedMonitors requires at least one index")
		}
		first, ok := desktop.Monitor(c.MonitorIndices[0])
		if !ok {
			return monitor.Bounds{}, fmt.Errorf("capture: monitor index %d out of range", c.MonitorIndices[0])
		}
		rect := first.Bounds
		for _, idx := range c.MonitorIndices[1:] {
			m, ok := desktop.Monitor(idx)
			if !ok {
				return monitor.Bounds{}, fmt.Errorf("capture: monitor index %d out of range", idx)
			}
			rect = rect.Union(m.Bounds)
		}
		return rect, nil
	case ModeWindow:
		return monitor.Bounds{}, fmt.Errorf("capture: ModeWindow has no desktop-geometry rectangle")
	default:
		return monitor.Bounds{}, fmt.Errorf("capture: unknown mode %d", c.Mode)
	}
}

// FrameSource produces raw BGRA frames at a paced rate. GetFrame is
// non-blocking and returns at most one frame per tick; a missed tick
// yields (nil, false) rather than blocking the caller.
type FrameSource interface {
	Start() error
	Stop() error
	GetFrame() (*frame.Raw, bool)
	IsActive() bool
	Config() Config
}
