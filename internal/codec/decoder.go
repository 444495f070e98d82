package codec

import (
	"time"

	"github.com/breeze-rmm/streamcore/internal/frame"
)

// Decoder is stateless and safe to share across goroutines; its config is
// fixed at construction.
type Decoder struct {
	cfg DecoderConfig
}

// NewDecoder returns a Decoder with DefaultDecoderConfig.
func NewDecoder() *Decoder {
	return &Decoder{cfg: DefaultDecoderConfig()}
}

// NewDecoderWithConfig returns a Decoder with a caller-supplied config.
func NewDecoderWithConfig(cfg DecoderConfig) *Decoder {
	return &Decoder{cfg: cfg}
}

// DecodeFrame reverses Encoder.EncodeFrame. Validation order: optional
// max-size check, then format dispatch, then exact output-size check.
func (d *Decoder) DecodeFrame(e *frame.Encoded) (*frame.Decoded, error) {
	expected := frame.ExpectedRawSize(e.Width, e.Height)

	if d.cfg.EnableValidation && expected > d.cfg.MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	start := time.Now()
	data, err := decodeWithFormat(e.Format, e.Data, expected)
	if err != nil {
		return nil, err
	}
	if len(data) != expected {
		return nil, newSizeValidationError(expected, len(data))
	}
	elapsed := time.Since(start)

	return &frame.Decoded{
		Data:           data,
		Width:          e.Width,
		Height:         e.Height,
		Format:         e.Format,
		DecodeDuration: elapsed,
	}, nil
}

// DecodeBatch decodes each frame sequentially; no state is shared between
// calls, so a failure on one frame doesn't affect the others.
func (d *Decoder) DecodeBatch(frames []*frame.Encoded) []DecodeResult {
	results := make([]DecodeResult, len(frames))
	for i, f := range frames {
		dec, err := d.DecodeFrame(f)
		results[i] = DecodeResult{Frame: dec, Err: err}
	}
	return results
}

// DecodeResult pairs a DecodeBatch output with its error.
type DecodeResult struct {
	Frame *frame.Decoded
	Err   error
}
