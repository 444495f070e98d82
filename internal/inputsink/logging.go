package inputsink

import "github.com/breeze-rmm/streamcore/internal/obslog"

// LoggingSink logs every dispatched event instead of injecting it,
// standing in for a platform backend in demo/test builds.
type LoggingSink struct{}

func (LoggingSink) MouseMove(x, y int) error {
	obslog.L("inputsink").Debug("mouse_move", "x", x, "y", y)
	return nil
}

func (LoggingSink) MouseButton(x, y int, button string, down bool) error {
	obslog.L("inputsink").Debug("mouse_button", "x", x, "y", y, "button", button, "down", down)
	return nil
}

func (LoggingSink) MouseScroll(x, y, delta int) error {
	obslog.L("inputsink").Debug("mouse_scroll", "x", x, "y", y, "delta", delta)
	return nil
}

func (LoggingSink) KeyPress(key string, modifiers []string) error {
	obslog.L("inputsink").Debug("key_press", "key", key, "modifiers", modifiers)
	return nil
}

func (LoggingSink) KeyButton(key string, down bool) error {
	obslog.L("inputsink").Debug("key_button", "key", key, "down", down)
	return nil
}
