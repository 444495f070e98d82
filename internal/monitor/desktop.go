package monitor

import (
	"errors"
	"sort"
)

// ErrNoMonitors is returned when constructing a VirtualDesktop from an
// empty monitor list.
var ErrNoMonitors = errors.New("monitor: no monitors found")

// VirtualDesktop is the union of every enumerated monitor, the coordinate
// space CaptureMode rectangles are resolved against.
type VirtualDesktop struct {
	Monitors     []Monitor
	TotalBounds  Bounds
	PrimaryIndex int
}

// NewVirtualDesktop derives total bounds and primary index from monitors.
// Falls back to index 0 as primary if none is marked, matching enumeration
// backends that don't report primary status.
func NewVirtualDesktop(monitors []Monitor) (*VirtualDesktop, error) {
	if len(monitors) == 0 {
		return nil, ErrNoMonitors
	}

	primaryIndex := 0
	for i, m := range monitors {
		if m.IsPrimary {
			primaryIndex = i
			break
		}
	}

	total := monitors[0].Bounds
	for _, m := range monitors[1:] {
		total = total.Union(m.Bounds)
	}

	return &VirtualDesktop{
		Monitors:     monitors,
		TotalBounds:  total,
		PrimaryIndex: primaryIndex,
	}, nil
}

// MonitorAtPoint returns the first monitor containing (x, y), or false if
// the point falls outside every monitor.
func (v *VirtualDesktop) MonitorAtPoint(x, y int) (Monitor, bool) {
	for _, m := range v.Monitors {
		if m.ContainsPoint(x, y) {
			return m, true
		}
	}
	return Monitor{}, false
}

// Monitor returns the monitor at index, or false if out of range.
func (v *VirtualDesktop) Monitor(index int) (Monitor, bool) {
	if index < 0 || index >= len(v.Monitors) {
		return Monitor{}, false
	}
	return v.Monitors[index], true
}

// PrimaryMonitor returns the monitor at PrimaryIndex.
func (v *VirtualDesktop) PrimaryMonitor() Monitor {
	return v.Monitors[v.PrimaryIndex]
}

// MonitorsSorted returns monitors ordered top-to-bottom, then
// left-to-right, useful for presenting a stable monitor picker.
func (v *VirtualDesktop) MonitorsSorted() []Monitor {
	sorted := make([]Monitor, len(v.Monitors))
	copy(sorted, v.Monitors)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Bounds.Y != sorted[j].Bounds.Y {
			return sorted[i].Bounds.Y < sorted[j].Bounds.Y
		}
		return sorted[i].Bounds.X < sorted[j].Bounds.X
	})
	return sorted
}
