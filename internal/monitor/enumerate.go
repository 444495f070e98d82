//go:build !windows

package monitor

// Enumerate is a stub that reports a single default-sized primary monitor
// so the rest of the pipeline has a VirtualDesktop to work against. This
// file is built on every platform except Windows, and the package has no
// Windows enumeration file, so Enumerate and GetVirtualDesktop are not
// defined in Windows builds.
func Enumerate() ([]Monitor, error) {
	return []Monitor{{
		ID:          "default",
		Index:       0,
		Name:        "Default",
		IsPrimary:   true,
		Bounds:      Bounds{X: 0, Y: 0, Width: 1920, Height: 1080},
		WorkArea:    Bounds{X: 0, Y: 0, Width: 1920, Height: 1040},
		ScaleFactor: 1.0,
		RefreshRate: 60,
		BitDepth:    32,
		Orientation: Landscape,
	}}, nil
}

// GetVirtualDesktop enumerates monitors and derives the VirtualDesktop.
func GetVirtualDesktop() (*VirtualDesktop, error) {
	monitors, err := Enumerate()
	if err != nil {
		return nil, err
	}
	return NewVirtualDesktop(monitors)
}
