// Package monitor models display geometry: individual monitors and the
// virtual desktop formed by their union, consumed by capture to resolve a
// CaptureMode into a source rectangle.
package monitor

import "fmt"

// Orientation describes how a monitor's physical rotation affects its
// reported width/height.
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
	LandscapeFlipped
	PortraitFlipped
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "landscape"
	case Portrait:
		return "portrait"
	case LandscapeFlipped:
		return "landscape-flipped"
	case PortraitFlipped:
		return "portrait-flipped"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// Bounds is an axis-aligned rectangle in virtual-desktop coordinates.
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Intersects reports whether b and other overlap on at least one pixel.
func (b Bounds) Intersects(other Bounds) bool {
	return b.X < other.X+other.Width &&
		b.X+b.Width > other.X &&
		b.Y < other.Y+other.Height &&
		b.Y+b.Height > other.Y
}

// Intersection returns the overlapping region of b and other, and false if
// they don't overlap.
func (b Bounds) Intersection(other Bounds) (Bounds, bool) {
	x1 := max(b.X, other.X)
	y1 := max(b.Y, other.Y)
	x2 := min(b.X+b.Width, other.X+other.Width)
	y2 := min(b.Y+b.Height, other.Y+other.Height)

	if x2 > x1 && y2 > y1 {
		return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
	}
	return Bounds{}, false
}

// Union returns the smallest bounds containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	x1 := min(b.X, other.X)
	y1 := min(b.Y, other.Y)
	x2 := max(b.X+b.Width, other.X+other.Width)
	y2 := max(b.Y+b.Height, other.Y+other.Height)

	return Bounds{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// ContainsPoint reports whether (x, y) falls within b, using a half-open
// interval on the right/bottom edges.
func (b Bounds) ContainsPoint(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Monitor describes a single physical display output.
type Monitor struct {
	ID           string
	Index        int
	Name         string
	IsPrimary    bool
	Bounds       Bounds
	WorkArea     Bounds
	ScaleFactor  float64
	RefreshRate  int
	BitDepth     int
	Orientation  Orientation
}

// Center returns the monitor's midpoint in virtual-desktop coordinates.
func (m Monitor) Center() (x, y int) {
	return m.Bounds.X + m.Bounds.Width/2, m.Bounds.Y + m.Bounds.Height/2
}

// ContainsPoint reports whether (x, y) falls on this monitor.
func (m Monitor) ContainsPoint(x, y int) bool {
	return m.Bounds.ContainsPoint(x, y)
}

// PhysicalSize returns the monitor's pixel dimensions after applying its
// DPI scale factor.
func (m Monitor) PhysicalSize() (width, height int) {
	return int(float64(m.Bounds.Width) * m.ScaleFactor), int(float64(m.Bounds.Height) * m.ScaleFactor)
}

func (m Monitor) String() string {
	primary := ""
	if m.IsPrimary {
		primary = " [primary]"
	}
	return fmt.Sprintf("%s (%s) - %dx%d @ %dHz%s", m.Name, m.ID, m.Bounds.Width, m.Bounds.Height, m.RefreshRate, primary)
}
