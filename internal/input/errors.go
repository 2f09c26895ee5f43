package input

import (
	"errors"
	"fmt"
)

var (
	// ErrCapability reports a required X extension missing on the server.
	ErrCapability = errors.New("required X extension not available")
	// ErrConnection reports a failure to reach the X display.
	ErrConnection = errors.New("cannot connect to X display")
	// ErrContext reports a failure to allocate or enable the record context.
	ErrContext = errors.New("cannot set up record context")
	// ErrUnsupported is returned on platforms without an X11 backend.
	ErrUnsupported = errors.New("key interception not supported on this platform")
)

// SetupError is a fatal error raised while bringing up the X session.
// Kind is one of the sentinel errors above.
type SetupError struct {
	Kind error
	Op   string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *SetupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
