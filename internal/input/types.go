// Package input provides global key event interception and key synthesis
// on an X11 display.
package input

import "time"

// Keycode is a physical X keycode (8..255).
type Keycode uint8

// Keysym is an X keysym value.
type Keysym uint32

// EventKind distinguishes key presses from key releases.
type EventKind uint8

const (
	Press EventKind = iota + 1
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// KeyEvent represents one intercepted key transition
type KeyEvent struct {
	Kind EventKind
	Code Keycode
	Time time.Time // arrival time
}

// KeySource defines the interface for capturing key events
type KeySource interface {
	Start() error
	Stop() error
	Events() <-chan KeyEvent
}

// KeySink defines the interface for injecting key events
type KeySink interface {
	Synthesize(code Keycode, pressed bool) error
}

// Tap synthesizes a full press then release of code.
func Tap(sink KeySink, code Keycode) error {
	if err := sink.Synthesize(code, true); err != nil {
		return err
	}
	return sink.Synthesize(code, false)
}
