package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"

	"github.com/breeze-rmm/streamcore/internal/frame"
)

var (
	lz4Magic  = []byte("LZ4\x00")
	zstdMagic = []byte("ZSTD")
)

// zlibLevel maps a 0-100 quality to a zlib/deflate compression level, per
// spec: >=90 best, >=70 7, >=50 5, >=30 3, else fastest.
func zlibLevel(quality int) int {
	switch {
	case quality >= 90:
		return kzlib.BestCompression
	case quality >= 70:
		return 7
	case quality >= 50:
		return 5
	case quality >= 30:
		return 3
	default:
		return kzlib.BestSpeed
	}
}

func compressZlib(data []byte, quality int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, zlibLevel(quality))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	return buf.Bytes(), nil
}

func decompressZlib(data []byte) ([]byte, error) {
	r, err := kzlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	return out, nil
}

// lz4CompressionLevel maps quality the same way as zlib so "higher quality"
// consistently means "spend more CPU for a smaller frame" across formats.
func lz4CompressionLevel(quality int) lz4.CompressionLevel {
	switch {
	case quality >= 90:
		return lz4.Level9
	case quality >= 70:
		return lz4.Level7
	case quality >= 50:
		return lz4.Level5
	case quality >= 30:
		return lz4.Level3
	default:
		return lz4.Fast
	}
}

func compressLZ4(data []byte, quality int) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	var compressor lz4.Compressor
	compressor.Level = lz4CompressionLevel(quality)
	n, err := compressor.CompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	out := make([]byte, 0, len(lz4Magic)+n)
	out = append(out, lz4Magic...)
	out = append(out, buf[:n]...)
	return out, nil
}

func decompressLZ4(data []byte, expectedSize int) ([]byte, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], lz4Magic) {
		return nil, fmt.Errorf("%w: missing LZ4 magic prefix", ErrInvalidData)
	}
	out := make([]byte, expectedSize)
	n, err := lz4.UncompressBlock(data[4:], out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	return out[:n], nil
}

func zstdLevel(quality int) zstd.EncoderLevel {
	switch {
	case quality >= 90:
		return zstd.SpeedBestCompression
	case quality >= 50:
		return zstd.SpeedBetterCompression
	case quality >= 30:
		return zstd.SpeedDefault
	default:
		return zstd.SpeedFastest
	}
}

func compressZstd(data []byte, quality int) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(quality)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(data, make([]byte, 0, len(zstdMagic)+len(data)/2))
	// EncodeAll doesn't prefix with our caller-visible magic, so splice it
	// in front rather than relying on the zstd frame magic directly — this
	// keeps the framing identical to LZ4's magic-prefixed output.
	out := make([]byte, 0, len(zstdMagic)+len(compressed))
	out = append(out, zstdMagic...)
	out = append(out, compressed...)
	return out, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], zstdMagic) {
		return nil, fmt.Errorf("%w: missing ZSTD magic prefix", ErrInvalidData)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data[4:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	return out, nil
}

func encodeWithFormat(format frame.Format, data []byte, quality int) ([]byte, error) {
	switch format {
	case frame.FormatNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case frame.FormatZlib:
		return compressZlib(data, quality)
	case frame.FormatLZ4:
		return compressLZ4(data, quality)
	case frame.FormatZstd:
		return compressZstd(data, quality)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func decodeWithFormat(format frame.Format, data []byte, expectedSize int) ([]byte, error) {
	switch format {
	case frame.FormatNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case frame.FormatZlib:
		return decompressZlib(data)
	case frame.FormatLZ4:
		return decompressLZ4(data, expectedSize)
	case frame.FormatZstd:
		return decompressZstd(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
