package wire

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrTruncated is returned when a buffer ends before a length-prefixed
// field it declared could be fully read.
var ErrTruncated = errors.New("wire: truncated message")

// ErrUnknownTag is returned when the first byte doesn't match any Tag.
var ErrUnknownTag = errors.New("wire: unknown message tag")

// ErrInvalidUTF8 is returned when a Control type string isn't valid UTF-8.
var ErrInvalidUTF8 = errors.New("wire: control type is not valid utf-8")

// Serialize encodes m per the wire format, little-endian throughout.
func Serialize(m Message) ([]byte, error) {
	switch m.Tag {
	case TagVideoFrame:
		return serializeVideoFrame(m.VideoFrame), nil
	case TagAudioData:
		return serializeAudioData(m.AudioData), nil
	case TagInputEvent:
		return serializeInputEvent(m.InputEvent), nil
	case TagControl:
		return serializeControl(m.Control)
	case TagHeartbeat:
		return serializeHeartbeat(m.Heartbeat), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, m.Tag)
	}
}

func serializeVideoFrame(f *VideoFrame) []byte {
	buf := make([]byte, 0, 1+8+8+1+4+len(f.Data))
	buf = append(buf, byte(TagVideoFrame))
	buf = binary.LittleEndian.AppendUint64(buf, f.Sequence)
	buf = binary.LittleEndian.AppendUint64(buf, f.TimestampMs)
	keyframe := byte(0)
	if f.IsKeyframe {
		keyframe = 1
	}
	buf = append(buf, keyframe)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f.Data)))
	buf = append(buf, f.Data...)
	return buf
}

func serializeAudioData(a *AudioData) []byte {
	buf := make([]byte, 0, 1+8+8+4+len(a.Data))
	buf = append(buf, byte(TagAudioData))
	buf = binary.LittleEndian.AppendUint64(buf, a.Sequence)
	buf = binary.LittleEndian.AppendUint64(buf, a.TimestampMs)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(a.Data)))
	buf = append(buf, a.Data...)
	return buf
}

func serializeInputEvent(e *InputEvent) []byte {
	buf := make([]byte, 0, 1+8+4+len(e.Data))
	buf = append(buf, byte(TagInputEvent))
	buf = binary.LittleEndian.AppendUint64(buf, e.Sequence)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Data)))
	buf = append(buf, e.Data...)
	return buf
}

func serializeControl(c *Control) ([]byte, error) {
	if !utf8.ValidString(c.Type) {
		return nil, ErrInvalidUTF8
	}
	typeBytes := []byte(c.Type)
	buf := make([]byte, 0, 1+4+len(typeBytes)+4+len(c.Payload))
	buf = append(buf, byte(TagControl))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(typeBytes)))
	buf = append(buf, typeBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(c.Payload)))
	buf = append(buf, c.Payload...)
	return buf, nil
}

func serializeHeartbeat(h *Heartbeat) []byte {
	buf := make([]byte, 0, 1+8)
	buf = append(buf, byte(TagHeartbeat))
	buf = binary.LittleEndian.AppendUint64(buf, h.TimestampMs)
	return buf
}

// Deserialize decodes a Message from buf, requiring buf to contain exactly
// one message with no trailing bytes.
func Deserialize(buf []byte) (Message, error) {
	if len(buf) < 1 {
		return Message{}, ErrTruncated
	}
	tag := Tag(buf[0])
	body := buf[1:]

	switch tag {
	case TagVideoFrame:
		return deserializeVideoFrame(body)
	case TagAudioData:
		return deserializeAudioData(body)
	case TagInputEvent:
		return deserializeInputEvent(body)
	case TagControl:
		return deserializeControl(body)
	case TagHeartbeat:
		return deserializeHeartbeat(body)
	default:
		return Message{}, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, tag)
	}
}

func deserializeVideoFrame(b []byte) (Message, error) {
	if len(b) < 8+8+1+4 {
		return Message{}, ErrTruncated
	}
	seq := binary.LittleEndian.Uint64(b[0:8])
	ts := binary.LittleEndian.Uint64(b[8:16])
	isKeyframe := b[16] != 0
	length := binary.LittleEndian.Uint32(b[17:21])
	data := b[21:]
	if uint32(len(data)) != length {
		return Message{}, ErrTruncated
	}
	return NewVideoFrame(seq, ts, isKeyframe, data), nil
}

func deserializeAudioData(b []byte) (Message, error) {
	if len(b) < 8+8+4 {
		return Message{}, ErrTruncated
	}
	seq := binary.LittleEndian.Uint64(b[0:8])
	ts := binary.LittleEndian.Uint64(b[8:16])
	length := binary.LittleEndian.Uint32(b[16:20])
	data := b[20:]
	if uint32(len(data)) != length {
		return Message{}, ErrTruncated
	}
	return NewAudioData(seq, ts, data), nil
}

func deserializeInputEvent(b []byte) (Message, error) {
	if len(b) < 8+4 {
		return Message{}, ErrTruncated
	}
	seq := binary.LittleEndian.Uint64(b[0:8])
	length := binary.LittleEndian.Uint32(b[8:12])
	data := b[12:]
	if uint32(len(data)) != length {
		return Message{}, ErrTruncated
	}
	return NewInputEvent(seq, data), nil
}

func deserializeControl(b []byte) (Message, error) {
	if len(b) < 4 {
		return Message{}, ErrTruncated
	}
	typeLen := binary.LittleEndian.Uint32(b[0:4])
	off := 4
	if uint32(len(b)-off) < typeLen {
		return Message{}, ErrTruncated
	}
	typeBytes := b[off : off+int(typeLen)]
	if !utf8.Valid(typeBytes) {
		return Message{}, ErrInvalidUTF8
	}
	off += int(typeLen)

	if len(b)-off < 4 {
		return Message{}, ErrTruncated
	}
	payloadLen := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	if uint32(len(b)-off) != payloadLen {
		return Message{}, ErrTruncated
	}
	var payload []byte
	if payloadLen > 0 {
		payload = b[off:]
	}
	return NewControl(string(typeBytes), payload), nil
}

func deserializeHeartbeat(b []byte) (Message, error) {
	if len(b) != 8 {
		return Message{}, ErrTruncated
	}
	return NewHeartbeat(binary.LittleEndian.Uint64(b)), nil
}

// EncodeAckPayload encodes seq as the Control payload for AckControlType.
func EncodeAckPayload(seq uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, seq)
}

// DecodeAckPayload reverses EncodeAckPayload.
func DecodeAckPayload(payload []byte) (uint64, error) {
	if len(payload) != 8 {
		return 0, ErrTruncated
	}
	return binary.LittleEndian.Uint64(payload), nil
}

// StreamInfo describes the dimensions and compression format every
// VideoFrame on a connection shares, announced once via a Control message
// carrying StreamInfoControlType.
type StreamInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// EncodeStreamInfo JSON-encodes a StreamInfo for a Control payload.
func EncodeStreamInfo(info StreamInfo) ([]byte, error) {
	buf, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("wire: encode stream info: %w", err)
	}
	return buf, nil
}

// DecodeStreamInfo reverses EncodeStreamInfo.
func DecodeStreamInfo(payload []byte) (StreamInfo, error) {
	var info StreamInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return StreamInfo{}, fmt.Errorf("wire: decode stream info: %w", err)
	}
	return info, nil
}
