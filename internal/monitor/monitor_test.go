package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsIntersection(t *testing.T) {
	b1 := Bounds{X: 0, Y: 0, Width: 100, Height: 100}
	b2 := Bounds{X: 50, Y: 50, Width: 100, Height: 100}
	b3 := Bounds{X: 200, Y: 200, Width: 100, Height: 100}

	assert.True(t, b1.Intersects(b2))
	assert.False(t, b1.Intersects(b3))

	inter, ok := b1.Intersection(b2)
	require.True(t, ok)
	assert.Equal(t, Bounds{X: 50, Y: 50, Width: 50, Height: 50}, inter)

	_, ok = b1.Intersection(b3)
	assert.False(t, ok)
}

func TestBoundsUnion(t *testing.T) {
	b1 := Bounds{X: 0, Y: 0, Width: 100, Height: 100}
	b2 := Bounds{X: 50, Y: 50, Width: 100, Height: 100}

	union := b1.Union(b2)
	assert.Equal(t, Bounds{X: 0, Y: 0, Width: 150, Height: 150}, union)
}

// Invariant 6: intersection.is_some() iff intersects(), and when present
// the intersection lies inside both bounds.
func TestIntersectionIntersectsAgree(t *testing.T) {
	cases := []struct{ a, b Bounds }{
		{Bounds{0, 0, 100, 100}, Bounds{50, 50, 100, 100}},
		{Bounds{0, 0, 100, 100}, Bounds{200, 200, 100, 100}},
		{Bounds{0, 0, 50, 50}, Bounds{50, 0, 50, 50}}, // edge-adjacent, no overlap
	}
	for _, c := range cases {
		inter, ok := c.a.Intersection(c.b)
		assert.Equal(t, c.a.Intersects(c.b), ok)
		if ok {
			within := func(r, outer Bounds) bool {
				return r.X >= outer.X && r.Y >= outer.Y &&
					r.X+r.Width <= outer.X+outer.Width &&
					r.Y+r.Height <= outer.Y+outer.Height
			}
			assert.True(t, within(inter, c.a))
			assert.True(t, within(inter, c.b))
		}
	}
}

func TestMonitorContainsPoint(t *testing.T) {
	m := Monitor{
		ID: "test", Index: 0, Name: "Test Monitor", IsPrimary: true,
		Bounds:      Bounds{X: 0, Y: 0, Width: 1920, Height: 1080},
		WorkArea:    Bounds{X: 0, Y: 0, Width: 1920, Height: 1040},
		ScaleFactor: 1.0, RefreshRate: 60, BitDepth: 32, Orientation: Landscape,
	}

	assert.True(t, m.ContainsPoint(960, 540))
	assert.True(t, m.ContainsPoint(0, 0))
	assert.True(t, m.ContainsPoint(1919, 1079))
	assert.False(t, m.ContainsPoint(1920, 1080))
	assert.False(t, m.ContainsPoint(-1, 0))
}

// S6 — virtual desktop geometry.
func TestVirtualDesktopGeometry(t *testing.T) {
	monitors := []Monitor{
		{
			ID: "primary", Index: 0, Name: "Primary Monitor", IsPrimary: true,
			Bounds: Bounds{X: 0, Y: 0, Width: 1920, Height: 1080}, ScaleFactor: 1.0, RefreshRate: 60,
		},
		{
			ID: "secondary", Index: 1, Name: "Secondary Monitor", IsPrimary: false,
			Bounds: Bounds{X: 1920, Y: 0, Width: 1920, Height: 1080}, ScaleFactor: 1.0, RefreshRate: 60,
		},
	}

	desktop, err := NewVirtualDesktop(monitors)
	require.NoError(t, err)
	assert.Equal(t, Bounds{X: 0, Y: 0, Width: 3840, Height: 1080}, desktop.TotalBounds)
	assert.Equal(t, 0, desktop.PrimaryIndex)

	at100, ok := desktop.MonitorAtPoint(100, 100)
	require.True(t, ok)
	assert.True(t, at100.IsPrimary)

	at2000, ok := desktop.MonitorAtPoint(2000, 100)
	require.True(t, ok)
	assert.False(t, at2000.IsPrimary)
}

func TestVirtualDesktopEmpty(t *testing.T) {
	_, err := NewVirtualDesktop(nil)
	require.ErrorIs(t, err, ErrNoMonitors)
}

func TestVirtualDesktopFallsBackToFirstPrimary(t *testing.T) {
	monitors := []Monitor{
		{ID: "a", Bounds: Bounds{Width: 100, Height: 100}},
		{ID: "b", Bounds: Bounds{X: 100, Width: 100, Height: 100}},
	}
	desktop, err := NewVirtualDesktop(monitors)
	require.NoError(t, err)
	assert.Equal(t, 0, desktop.PrimaryIndex)
}

func TestEnumerateReturnsDefaultMonitor(t *testing.T) {
	monitors, err := Enumerate()
	require.NoError(t, err)
	require.Len(t, monitors, 1)
	assert.True(t, monitors[0].IsPrimary)
}
