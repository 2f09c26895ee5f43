//go:build linux

package input

/*
#cgo LDFLAGS: -lX11 -lXtst

#include <stdint.h>
#include <stdlib.h>
#include <X11/Xlib.h>

int dualkeyEnableContext(Display *dpy, unsigned long ctx, uintptr_t handle);
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"

	"github.com/BurntSushi/xgb/record"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"
)

// Linux implementation of key capture using the X RECORD extension.
//
// The record stream is read with Xlib on a dedicated data connection:
// XRecordEnableContext answers with an open-ended series of replies to a
// single request, which xgb cannot consume.

type dataDisplay struct {
	dpy  *C.Display
	once sync.Once
}

func openDataDisplay(name string) (*dataDisplay, error) {
	var cname *C.char
	if name != "" {
		cname = C.CString(name)
		defer C.free(unsafe.Pointer(cname))
	}
	dpy := C.XOpenDisplay(cname)
	if dpy == nil {
		if name == "" {
			return nil, errors.New("XOpenDisplay failed for $DISPLAY")
		}
		return nil, fmt.Errorf("XOpenDisplay failed for %q", name)
	}
	return &dataDisplay{dpy: dpy}, nil
}

func (d *dataDisplay) close() {
	d.once.Do(func() {
		if d.dpy != nil {
			C.XCloseDisplay(d.dpy)
		}
	})
}

// Trap delivers every key press and release on the display, from all clients.
type Trap struct {
	context   record.Context
	enable    func(handle uintptr) bool // blocks while the stream runs
	disable   func(record.Context) error
	closeData func()
	clock     func() time.Time
	log       zerolog.Logger

	events  chan KeyEvent
	done    chan struct{}
	stopped chan struct{}
	handle  cgo.Handle

	mu      sync.Mutex
	running bool
	closed  bool
}

func newTrap(data *dataDisplay, ctx record.Context, disable func(record.Context) error, log zerolog.Logger) *Trap {
	return &Trap{
		context: ctx,
		enable: func(handle uintptr) bool {
			return C.dualkeyEnableContext(data.dpy, C.ulong(ctx), C.uintptr_t(handle)) != 0
		},
		disable:   disable,
		closeData: data.close,
		clock:     time.Now,
		log:       log,
		events:    make(chan KeyEvent),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start enables the record context. Events flow until Stop is called.
func (t *Trap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("trap already stopped")
	}
	if t.running {
		return nil
	}
	t.running = true
	t.handle = cgo.NewHandle(t)
	go t.loop()
	return nil
}

func (t *Trap) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.stopped)
	defer close(t.events)

	t.log.Debug().Uint32("context", uint32(t.context)).Msg("Record context enabled")
	if !t.enable(uintptr(t.handle)) {
		t.log.Error().Msg("XRecordEnableContext failed")
	}
	t.closeData()
}

// Stop disables the record context and waits for the stream to end.
func (t *Trap) Stop() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	running := t.running
	t.mu.Unlock()

	close(t.done)
	if !running {
		t.closeData()
		return nil
	}
	if err := t.disable(t.context); err != nil {
		// the stream only ends with its connection now
		t.closeData()
		return fmt.Errorf("disable record context: %w", err)
	}
	<-t.stopped
	t.handle.Delete()
	return nil
}

// Events returns the key event channel. It is closed once the stream ends.
func (t *Trap) Events() <-chan KeyEvent {
	return t.events
}

func (t *Trap) deliver(kind EventKind, code Keycode) {
	ev := KeyEvent{Kind: kind, Code: code, Time: t.clock()}
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

//export dualkeyDeliver
func dualkeyDeliver(handle C.uintptr_t, typ C.uchar, detail C.uchar) {
	t, ok := cgo.Handle(handle).Value().(*Trap)
	if !ok {
		return
	}
	// high bit marks events generated with SendEvent
	switch byte(typ) & 0x7f {
	case xproto.KeyPress:
		t.deliver(Press, Keycode(detail))
	case xproto.KeyRelease:
		t.deliver(Release, Keycode(detail))
	}
}
