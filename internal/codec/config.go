package codec

import "github.com/breeze-rmm/streamcore/internal/frame"

// EncoderConfig configures a FrameEncoder. Mutable atomically via
// Encoder.UpdateConfig; last writer wins for subsequently encoded frames.
type EncoderConfig struct {
	Format     frame.Format
	Quality    int // 0-100
	MaxWorkers int
}

// DefaultEncoderConfig returns the conservative default used when a
// session doesn't specify one explicitly.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Format:     frame.FormatZlib,
		Quality:    80,
		MaxWorkers: 1,
	}
}

func (c EncoderConfig) validate() error {
	if c.Quality < 0 || c.Quality > 100 {
		return ErrInvalidQuality
	}
	if c.MaxWorkers < 1 {
		return ErrInvalidWorkers
	}
	return nil
}

// DecoderConfig configures a FrameDecoder. Immutable per instance.
type DecoderConfig struct {
	MaxFrameSize     int
	EnableValidation bool
	Workers          int
}

// DefaultDecoderConfig uses an 8K-frame ceiling (8192*8192*4 bytes) with
// validation on.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		MaxFrameSize:     8192 * 8192 * 4,
		EnableValidation: true,
		Workers:          1,
	}
}
