package codec

import (
	"sync"
	"time"

	"github.com/breeze-rmm/streamcore/internal/frame"
)

const (
	minDimension = 1
	maxDimension = 8192
)

// Stats is a point-in-time snapshot of an Encoder's cumulative counters.
type Stats struct {
	FramesEncoded   uint64
	BytesIn         uint64
	BytesOut        uint64
	AvgEncodeTimeUs float64
}

type encoderStats struct {
	framesEncoded uint64
	bytesIn       uint64
	bytesOut      uint64
	totalTimeUs   uint64
}

// Encoder turns RawFrames into EncodedFrames using a configured
// compression format. Safe for concurrent use; config updates and stat
// reads/writes are serialized by a mutex with brief critical sections.
type Encoder struct {
	mu     sync.Mutex
	cfg    EncoderConfig
	stats  encoderStats
	closed bool
}

// NewEncoder validates cfg and returns a ready-to-use Encoder.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg}, nil
}

// Config returns the encoder's current configuration.
func (e *Encoder) Config() EncoderConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// UpdateConfig atomically swaps the encoder's configuration. Frames
// already in flight are unaffected; subsequent calls to EncodeFrame use
// the new config.
func (e *Encoder) UpdateConfig(cfg EncoderConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
	return nil
}

// EncodeFrame validates dimensions and data size (in that order), then
// compresses data with the encoder's current format. Validation failures
// and compression failures are both fatal to this single frame only —
// the encoder itself remains usable for the next call.
func (e *Encoder) EncodeFrame(data []byte, width, height int) (*frame.Encoded, error) {
	if width < minDimension || width > maxDimension || height < minDimension || height > maxDimension {
		return nil, &DimensionError{Width: width, Height: height}
	}
	expected := frame.ExpectedRawSize(width, height)
	if len(data) != expected {
		return nil, newFrameDataSizeError(expected, len(data))
	}

	e.mu.Lock()
	cfg := e.cfg
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEncoderClosed
	}

	start := time.Now()
	compressed, err := encodeWithFormat(cfg.Format, data, cfg.Quality)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	e.mu.Lock()
	e.stats.framesEncoded++
	e.stats.bytesIn += uint64(len(data))
	e.stats.bytesOut += uint64(len(compressed))
	e.stats.totalTimeUs += uint64(elapsed.Microseconds())
	e.mu.Unlock()

	return &frame.Encoded{
		Data:           compressed,
		Width:          width,
		Height:         height,
		Format:         cfg.Format,
		OriginalSize:   len(data),
		TimestampMs:    time.Now().UnixMilli(),
		EncodeDuration: elapsed,
	}, nil
}

// EncodeBatch encodes each frame independently; no state is shared across
// frames beyond the encoder's config and running stats. An error on one
// frame doesn't halt the batch — the caller gets a result slice the same
// length as the input.
func (e *Encoder) EncodeBatch(frames []*frame.Raw) []EncodeResult {
	results := make([]EncodeResult, len(frames))
	for i, f := range frames {
		enc, err := e.EncodeFrame(f.Data, f.Width, f.Height)
		results[i] = EncodeResult{Frame: enc, Err: err}
	}
	return results
}

// EncodeResult pairs an EncodeBatch output with its error, since a batch
// may partially fail.
type EncodeResult struct {
	Frame *frame.Encoded
	Err   error
}

// Stats returns the encoder's cumulative counters.
func (e *Encoder) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	avg := 0.0
	if e.stats.framesEncoded > 0 {
		avg = float64(e.stats.totalTimeUs) / float64(e.stats.framesEncoded)
	}
	return Stats{
		FramesEncoded:   e.stats.framesEncoded,
		BytesIn:         e.stats.bytesIn,
		BytesOut:        e.stats.bytesOut,
		AvgEncodeTimeUs: avg,
	}
}

// Cleanup releases the encoder's resources and marks it closed; further
// EncodeFrame calls return ErrEncoderClosed. Safe to call more than once.
func (e *Encoder) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
