//go:build linux

package input

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
)

// Linux implementation of key injection using the XTEST extension

// Injector synthesizes key events on the control connection
type Injector struct {
	conn *xgb.Conn
	root xproto.Window
}

// Synthesize injects one half of a key actuation. The request is checked so
// the event reaches the server before Synthesize returns.
func (i *Injector) Synthesize(code Keycode, pressed bool) error {
	typ := byte(xproto.KeyRelease)
	if pressed {
		typ = xproto.KeyPress
	}
	return xtest.FakeInputChecked(i.conn, typ, byte(code), xproto.TimeCurrentTime, i.root, 0, 0, 0).Check()
}
