// Package frame defines the raw and encoded frame types that flow through
// the capture -> encode -> transport -> decode pipeline.
package frame

import (
	"fmt"
	"time"
)

// Raw is a single captured BGRA frame, exclusively owned by the pipeline
// from capture until it is handed to the encoder.
type Raw struct {
	Width      int
	Height     int
	Data       []byte // BGRA, len == Width*Height*4
	CapturedAt time.Time
}

// Format identifies the compression algorithm used for an EncodedFrame.
type Format int

const (
	FormatNone Format = iota
	FormatZlib
	FormatLZ4
	FormatZstd
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatZlib:
		return "zlib"
	case FormatLZ4:
		return "lz4"
	case FormatZstd:
		return "zstd"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Valid reports whether f is one of the recognized compression formats.
func (f Format) Valid() bool {
	switch f {
	case FormatNone, FormatZlib, FormatLZ4, FormatZstd:
		return true
	default:
		return false
	}
}

// Encoded is a compressed frame ready for transport.
type Encoded struct {
	Data             []byte
	Width            int
	Height           int
	Format           Format
	OriginalSize     int
	IsKeyframe       bool
	TimestampMs      int64         // wall-clock, ms since epoch
	EncodeDuration   time.Duration // wall-clock cost to produce this frame
}

// CompressedSize returns len(Data); kept as a method so callers read
// intent ("compressed size") rather than a bare len() at call sites.
func (e *Encoded) CompressedSize() int {
	return len(e.Data)
}

// CompressionRatio is OriginalSize/CompressedSize. Returns 0 for a
// zero-length frame.
func (e *Encoded) CompressionRatio() float64 {
	cs := e.CompressedSize()
	if cs == 0 {
		return 0
	}
	return float64(e.OriginalSize) / float64(cs)
}

// ExpectedRawSize returns the byte count a lossless decode of w*h BGRA
// pixels must produce.
func ExpectedRawSize(width, height int) int {
	return width * height * 4
}

// Decoded is the output of a FrameDecoder: raw BGRA pixels recovered from
// an Encoded frame, plus the cost of recovering them.
type Decoded struct {
	Data           []byte
	Width          int
	Height         int
	Format         Format
	DecodeDuration time.Duration
}
