//go:build !linux

package input

import (
	"errors"

	"github.com/rs/zerolog"
)

// Stub implementation for platforms without an X11 backend

// Options configures the X session (stub)
type Options struct {
	Display string
	Logger  zerolog.Logger
}

// Session is a stub X session
type Session struct{}

// Open always fails on this platform
func Open(opts Options) (*Session, error) {
	return nil, &SetupError{Kind: ErrUnsupported, Op: "open display"}
}

// KeyboardMap returns nil (stub)
func (s *Session) KeyboardMap() *KeyboardMap { return nil }

// Trap returns a stub trap
func (s *Session) Trap() *Trap { return &Trap{} }

// Injector returns a stub injector
func (s *Session) Injector() *Injector { return &Injector{} }

// Close is a no-op (stub)
func (s *Session) Close() error { return nil }

// Trap represents a stub key trap
type Trap struct{}

// Start begins capturing input (stub)
func (t *Trap) Start() error { return ErrUnsupported }

// Stop stops capturing input (stub)
func (t *Trap) Stop() error { return nil }

// Events returns the key event channel (stub)
func (t *Trap) Events() <-chan KeyEvent { return nil }

// Injector represents a stub key injector
type Injector struct{}

// Synthesize injects a key event (stub)
func (i *Injector) Synthesize(code Keycode, pressed bool) error {
	return errors.New("key injection not supported on this platform")
}
