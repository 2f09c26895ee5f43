//go:build linux

package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/record"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/rs/zerolog"
)

const recordHint = `the X server must load the RECORD extension; add
   Load  "record"
to the "Module" section of /etc/X11/xorg.conf`

// Options configures the X session.
type Options struct {
	// Display is the X display name; empty means $DISPLAY.
	Display string
	Logger  zerolog.Logger
}

// Session owns the two X connections used by the daemon: a data connection
// that only receives the intercepted stream, and a control connection that
// issues synthetic events and manages the record context. Synthesizing on
// the connection that is blocked in the record stream would deadlock.
type Session struct {
	ctrl     *xgb.Conn
	kmap     *KeyboardMap
	context  record.Context
	trap     *Trap
	injector *Injector
	log      zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the display, checks the XTEST and RECORD extensions and
// allocates a record context for key events from all clients. Any resource
// acquired before a failure is released before returning.
func Open(opts Options) (*Session, error) {
	log := opts.Logger.With().Str("component", "x11").Logger()

	data, err := openDataDisplay(opts.Display)
	if err != nil {
		return nil, &SetupError{Kind: ErrConnection, Op: "open data connection", Err: err}
	}

	ctrl, err := xgb.NewConnDisplay(opts.Display)
	if err != nil {
		data.close()
		return nil, &SetupError{Kind: ErrConnection, Op: "open control connection", Err: err}
	}

	s := &Session{ctrl: ctrl, log: log}
	ok := false
	defer func() {
		if !ok {
			ctrl.Close()
			data.close()
		}
	}()

	if err := s.checkExtensions(); err != nil {
		return nil, err
	}
	if err := s.loadKeyboardMap(); err != nil {
		return nil, err
	}
	if err := s.createContext(); err != nil {
		return nil, err
	}

	root := xproto.Setup(ctrl).DefaultScreen(ctrl).Root
	s.injector = &Injector{conn: ctrl, root: root}
	s.trap = newTrap(data, s.context, s.disableContext, log)
	ok = true

	log.Info().Str("display", opts.Display).Msg("X session ready")
	return s, nil
}

func (s *Session) checkExtensions() error {
	if err := xtest.Init(s.ctrl); err != nil {
		return &SetupError{Kind: ErrCapability, Op: "XTEST", Err: err}
	}
	tv, err := xtest.GetVersion(s.ctrl, 2, 2).Reply()
	if err != nil {
		return &SetupError{Kind: ErrCapability, Op: "XTEST version", Err: err}
	}

	if err := record.Init(s.ctrl); err != nil {
		return &SetupError{Kind: ErrCapability, Op: "RECORD", Err: fmt.Errorf("%w; %s", err, recordHint)}
	}
	rv, err := record.QueryVersion(s.ctrl, 1, 13).Reply()
	if err != nil {
		return &SetupError{Kind: ErrCapability, Op: "RECORD version", Err: err}
	}

	s.log.Debug().
		Str("xtest", fmt.Sprintf("%d.%d", tv.MajorVersion, tv.MinorVersion)).
		Str("record", fmt.Sprintf("%d.%d", rv.MajorVersion, rv.MinorVersion)).
		Msg("Extensions available")
	return nil
}

func (s *Session) loadKeyboardMap() error {
	setup := xproto.Setup(s.ctrl)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	reply, err := xproto.GetKeyboardMapping(s.ctrl, setup.MinKeycode, count).Reply()
	if err != nil {
		return &SetupError{Kind: ErrConnection, Op: "query keyboard mapping", Err: err}
	}
	syms := make([]Keysym, len(reply.Keysyms))
	for i, sym := range reply.Keysyms {
		syms[i] = Keysym(sym)
	}
	s.kmap = NewKeyboardMap(Keycode(setup.MinKeycode), int(reply.KeysymsPerKeycode), syms)
	return nil
}

func (s *Session) createContext() error {
	id, err := record.NewContextId(s.ctrl)
	if err != nil {
		return &SetupError{Kind: ErrContext, Op: "allocate record context", Err: err}
	}
	clients := []record.ClientSpec{record.CsAllClients}
	ranges := []record.Range{{
		DeviceEvents: record.Range8{First: xproto.KeyPress, Last: xproto.KeyRelease},
	}}
	err = record.CreateContextChecked(s.ctrl, id, 0, uint32(len(clients)), uint32(len(ranges)), clients, ranges).Check()
	if err != nil {
		return &SetupError{Kind: ErrContext, Op: "create record context", Err: err}
	}
	s.context = id
	return nil
}

func (s *Session) disableContext(ctx record.Context) error {
	return record.DisableContextChecked(s.ctrl, ctx).Check()
}

// KeyboardMap returns the keyboard mapping read at startup.
func (s *Session) KeyboardMap() *KeyboardMap {
	return s.kmap
}

// Trap returns the key event source bound to the data connection.
func (s *Session) Trap() *Trap {
	return s.trap
}

// Injector returns the key sink bound to the control connection.
func (s *Session) Injector() *Injector {
	return s.injector
}

// Close stops interception, frees the record context and closes both
// connections. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.trap.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := record.FreeContextChecked(s.ctrl, s.context).Check(); err != nil {
			errs = append(errs, fmt.Errorf("free record context: %w", err))
		}
		s.ctrl.Close()
		s.closeErr = errors.Join(errs...)
		s.log.Info().Msg("X session closed")
	})
	return s.closeErr
}
