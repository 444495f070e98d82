// Package wire defines the TransportMessage tagged union and its
// byte-exact little-endian encoding: one message serializes to exactly one
// QUIC stream's payload.
package wire

// Tag identifies a TransportMessage's variant on the wire.
type Tag byte

const (
	TagVideoFrame Tag = 0x00
	TagAudioData  Tag = 0x01
	TagInputEvent Tag = 0x02
	TagControl    Tag = 0x03
	TagHeartbeat  Tag = 0x04
)

// Message is the tagged union carried over a single transport stream.
// Exactly one of the typed fields is meaningful, selected by Tag.
type Message struct {
	Tag Tag

	VideoFrame *VideoFrame
	AudioData  *AudioData
	InputEvent *InputEvent
	Control    *Control
	Heartbeat  *Heartbeat
}

// VideoFrame carries one encoded frame plus its keyframe marker.
type VideoFrame struct {
	Sequence    uint64
	TimestampMs uint64
	IsKeyframe  bool
	Data        []byte
}

// AudioData carries one compressed audio chunk. Audio capture itself is
// out of scope; this variant exists so the wire format and transport can
// carry it once a collaborator produces one.
type AudioData struct {
	Sequence    uint64
	TimestampMs uint64
	Data        []byte
}

// InputEvent carries one opaque input payload (mouse/keyboard), produced
// by the viewer and dispatched to an InputSink on the host.
type InputEvent struct {
	Sequence uint64
	Data     []byte
}

// Control carries an out-of-band directive such as "request_keyframe",
// identified by a UTF-8 type string and an opaque payload.
type Control struct {
	Type    string
	Payload []byte
}

// Heartbeat keeps a connection alive when no other traffic has been sent.
type Heartbeat struct {
	TimestampMs uint64
}

// NewVideoFrame builds a Message wrapping a VideoFrame.
func NewVideoFrame(seq, ts uint64, isKeyframe bool, data []byte) Message {
	return Message{Tag: TagVideoFrame, VideoFrame: &VideoFrame{Sequence: seq, TimestampMs: ts, IsKeyframe: isKeyframe, Data: data}}
}

// NewAudioData builds a Message wrapping AudioData.
func NewAudioData(seq, ts uint64, data []byte) Message {
	return Message{Tag: TagAudioData, AudioData: &AudioData{Sequence: seq, TimestampMs: ts, Data: data}}
}

// NewInputEvent builds a Message wrapping an InputEvent.
func NewInputEvent(seq uint64, data []byte) Message {
	return Message{Tag: TagInputEvent, InputEvent: &InputEvent{Sequence: seq, Data: data}}
}

// NewControl builds a Message wrapping a Control directive.
func NewControl(typ string, payload []byte) Message {
	return Message{Tag: TagControl, Control: &Control{Type: typ, Payload: payload}}
}

// NewHeartbeat builds a Message wrapping a Heartbeat.
func NewHeartbeat(ts uint64) Message {
	return Message{Tag: TagHeartbeat, Heartbeat: &Heartbeat{TimestampMs: ts}}
}

// RequestKeyframeControlType is the Control.Type value the orchestrator
// recognizes as an explicit keyframe request.
const RequestKeyframeControlType = "request_keyframe"

// StreamInfoControlType is the Control.Type value sent once, before the
// first VideoFrame, carrying the JSON-encoded StreamInfo a decoder needs
// since VideoFrame itself carries no width/height/format (see
// EncodeStreamInfo/DecodeStreamInfo).
const StreamInfoControlType = "stream_info"

// AckControlType is the Control.Type value a receiver sends back to
// acknowledge a VideoFrame sequence, carrying an 8-byte LE sequence as
// its payload (see EncodeAckPayload/DecodeAckPayload). This rides the
// same generic Control variant as RequestKeyframeControlType rather than
// adding a new tag to the wire union.
const AckControlType = "ack"
