// Package inputsink defines the InputSink contract the orchestrator
// dispatches inbound input events to. Platform-specific injection
// (Windows SendInput, X11/Wayland, CoreGraphics) is an external
// collaborator out of scope here; this package owns the event schema and
// its wire encoding plus a logging stand-in for environments with no
// platform backend wired in.
package inputsink

import (
	"encoding/json"
	"fmt"
)

// Event mirrors the JSON schema a viewer serializes input as: one of
// mouse_move, mouse_down, mouse_up, mouse_scroll, key_press, key_down,
// key_up, keyed by Type.
type Event struct {
	Type      string   `json:"type"`
	X         int      `json:"x,omitempty"`
	Y         int      `json:"y,omitempty"`
	Button    string   `json:"button,omitempty"`
	Key       string   `json:"key,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Delta     int      `json:"delta,omitempty"`
}

// Decode parses an InputEvent wire payload as JSON.
func Decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("inputsink: decode: %w", err)
	}
	return e, nil
}

// Encode serializes an Event for the InputEvent wire payload.
func Encode(e Event) ([]byte, error) {
	buf, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("inputsink: encode: %w", err)
	}
	return buf, nil
}

// Sink dispatches decoded input events to a platform backend.
type Sink interface {
	MouseMove(x, y int) error
	MouseButton(x, y int, button string, down bool) error
	MouseScroll(x, y, delta int) error
	KeyPress(key string, modifiers []string) error
	KeyButton(key string, down bool) error
}

// Dispatch routes e to the Sink method matching e.Type.
func Dispatch(s Sink, e Event) error {
	switch e.Type {
	case "mouse_move":
		return s.MouseMove(e.X, e.Y)
	case "mouse_down":
		return s.MouseButton(e.X, e.Y, e.Button, true)
	case "mouse_up":
		return s.MouseButton(e.X, e.Y, e.Button, false)
	case "mouse_scroll":
		return s.MouseScroll(e.X, e.Y, e.Delta)
	case "key_press":
		return s.KeyPress(e.Key, e.Modifiers)
	case "key_down":
		return s.KeyButton(e.Key, true)
	case "key_up":
		return s.KeyButton(e.Key, false)
	default:
		return fmt.Errorf("inputsink: unknown event type %q", e.Type)
	}
}
