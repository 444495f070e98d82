package codec

import "errors"

var (
	// Encoder construction/config errors.
	ErrInvalidQuality   = errors.New("codec: quality must be in [0,100]")
	ErrInvalidWorkers   = errors.New("codec: max_workers must be at least 1")
	ErrEncoderClosed    = errors.New("codec: encoder is closed")

	// Per-frame encode errors.
	ErrInvalidDimensions = errors.New("codec: invalid frame dimensions")
	ErrInvalidFrameData  = errors.New("codec: frame data size does not match dimensions")
	ErrCompressionFailed = errors.New("codec: compression failed")
	ErrUnsupportedFormat = errors.New("codec: unsupported compression format")

	// Decode errors.
	ErrInvalidData           = errors.New("codec: invalid compressed data")
	ErrDecompressionFailed   = errors.New("codec: decompression failed")
	ErrSizeValidationFailed  = errors.New("codec: decompressed size does not match expected dimensions")
	ErrFrameTooLarge         = errors.New("codec: expected raw size exceeds max_frame_size")
)

// DimensionError carries the offending width/height for ErrInvalidDimensions.
type DimensionError struct {
	Width, Height int
}

func (e *DimensionError) Error() string {
	return ErrInvalidDimensions.Error()
}

func (e *DimensionError) Unwrap() error { return ErrInvalidDimensions }

// SizeError carries expected/actual byte counts for data-size mismatches.
type SizeError struct {
	Expected, Actual int
	base             error
}

func (e *SizeError) Error() string {
	return e.base.Error()
}

func (e *SizeError) Unwrap() error { return e.base }

func newFrameDataSizeError(expected, actual int) error {
	return &SizeError{Expected: expected, Actual: actual, base: ErrInvalidFrameData}
}

func newSizeValidationError(expected, actual int) error {
	return &SizeError{Expected: expected, Actual: actual, base: ErrSizeValidationFailed}
}
