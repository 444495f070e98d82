package codec

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/breeze-rmm/streamcore/internal/frame"
)

// fileMagic identifies a serialized EncodedFrame on disk. Layout (little
// endian): magic(4) · format(u8) · width(u32) · height(u32) ·
// originalSize(u32) · isKeyframe(u8) · timestampMs(i64) · dataLen(u32) ·
// data[dataLen].
var fileMagic = [4]byte{'S', 'C', 'F', '1'}

// SaveEncodedFrame serializes an EncodedFrame to path. This is a thin
// debugging/replay aid (e.g. capturing a single frame for a bug report);
// it is not part of the wire protocol in internal/wire.
func SaveEncodedFrame(path string, e *frame.Encoded) error {
	buf := make([]byte, 0, 4+1+4+4+4+1+8+4+len(e.Data))
	buf = append(buf, fileMagic[:]...)
	buf = append(buf, byte(e.Format))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Width))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Height))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.OriginalSize))
	keyframe := byte(0)
	if e.IsKeyframe {
		keyframe = 1
	}
	buf = append(buf, keyframe)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.TimestampMs))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Data)))
	buf = append(buf, e.Data...)
	return os.WriteFile(path, buf, 0o600)
}

// LoadEncodedFrame reads back a frame written by SaveEncodedFrame.
func LoadEncodedFrame(path string) (*frame.Encoded, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) < 4+1+4+4+4+1+8+4 {
		return nil, fmt.Errorf("%w: file too short", ErrInvalidData)
	}
	if [4]byte(raw[:4]) != fileMagic {
		return nil, fmt.Errorf("%w: bad file magic", ErrInvalidData)
	}
	off := 4
	format := frame.Format(raw[off])
	off++
	width := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	height := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	originalSize := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	isKeyframe := raw[off] != 0
	off++
	timestampMs := int64(binary.LittleEndian.Uint64(raw[off:]))
	off += 8
	dataLen := int(binary.LittleEndian.Uint32(raw[off:]))
	off += 4
	if off+dataLen > len(raw) {
		return nil, fmt.Errorf("%w: truncated frame data", ErrInvalidData)
	}
	data := make([]byte, dataLen)
	copy(data, raw[off:off+dataLen])

	return &frame.Encoded{
		Data:         data,
		Width:        width,
		Height:       height,
		Format:       format,
		OriginalSize: originalSize,
		IsKeyframe:   isKeyframe,
		TimestampMs:  timestampMs,
	}, nil
}

// Decode is a convenience that decodes e with d; equivalent to calling
// d.DecodeFrame(e) directly, kept for parity with the save/load helpers
// above so round-trip tests read as SaveEncodedFrame/LoadEncodedFrame/Decode.
func Decode(d *Decoder, e *frame.Encoded) (*frame.Decoded, error) {
	return d.DecodeFrame(e)
}
