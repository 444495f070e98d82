package capture

import "github.com/breeze-rmm/streamcore/internal/frame"

// GradientGenerator produces a deterministic BGRA test pattern, used by the
// demo CLI and by tests that need a FrameSource without a real display
// backend. Each call advances an internal phase so successive frames
// differ.
type GradientGenerator struct {
	phase int
}

// Generate returns one BGRA frame of the requested size.
func (g *GradientGenerator) Generate(width, height int) (*frame.Raw, error) {
	data := make([]byte, width*height*4)
	phase := g.phase
	g.phase++

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			data[i+0] = byte((x + y + phase) % 256)
			data[i+1] = byte(y * 255 / max(height, 1))
			data[i+2] = byte(x * 255 / max(width, 1))
			data[i+3] = 255
		}
	}

	return &frame.Raw{Width: width, Height: height, Data: data}, nil
}
