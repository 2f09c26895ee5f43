package input

import (
	"fmt"
	"strconv"
	"strings"
)

// $ man keymaps
// https://tronche.com/gui/x/xlib/input/XGetKeyboardMapping.html

// KeyboardMap is a snapshot of the server keyboard mapping.
type KeyboardMap struct {
	minCode Keycode
	perCode int
	syms    []Keysym
}

// NewKeyboardMap wraps the keysym table returned by GetKeyboardMapping,
// laid out as perCode consecutive keysyms for each keycode starting at minCode.
func NewKeyboardMap(minCode Keycode, perCode int, syms []Keysym) *KeyboardMap {
	return &KeyboardMap{minCode: minCode, perCode: perCode, syms: syms}
}

// Keysym returns the keysym in the given column for code, or 0.
func (km *KeyboardMap) Keysym(code Keycode, column int) Keysym {
	if km == nil || code < km.minCode || column < 0 || column >= km.perCode {
		return 0
	}
	i := int(code-km.minCode)*km.perCode + column
	if i >= len(km.syms) {
		return 0
	}
	return km.syms[i]
}

// Keycodes returns every keycode producing sym in any column, lowest first.
func (km *KeyboardMap) Keycodes(sym Keysym) []Keycode {
	if km == nil || km.perCode == 0 || sym == 0 {
		return nil
	}
	var codes []Keycode
	for i := 0; i < len(km.syms); i += km.perCode {
		end := i + km.perCode
		if end > len(km.syms) {
			end = len(km.syms)
		}
		for _, s := range km.syms[i:end] {
			if s == sym {
				codes = append(codes, km.minCode+Keycode(i/km.perCode))
				break
			}
		}
	}
	return codes
}

// ParseKeySpec resolves a key specification to a keycode. A decimal number
// is taken as a raw keycode, anything else as a keysym name (or a 0x-prefixed
// keysym value) looked up in km.
func ParseKeySpec(spec string, km *KeyboardMap) (Keycode, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("empty key")
	}
	if n, err := strconv.Atoi(spec); err == nil {
		if n < 8 || n > 255 {
			return 0, fmt.Errorf("keycode %d out of range 8..255", n)
		}
		return Keycode(n), nil
	}
	sym, err := ParseKeysym(spec)
	if err != nil {
		return 0, err
	}
	codes := km.Keycodes(sym)
	if len(codes) == 0 {
		return 0, fmt.Errorf("keysym %q is not bound to any keycode", spec)
	}
	return codes[0], nil
}

// ResolveKeysyms returns all keycodes producing any of the named keysyms.
func ResolveKeysyms(names []string, km *KeyboardMap) ([]Keycode, error) {
	seen := make(map[Keycode]bool)
	var codes []Keycode
	for _, name := range names {
		sym, err := ParseKeysym(name)
		if err != nil {
			return nil, err
		}
		found := km.Keycodes(sym)
		if len(found) == 0 {
			return nil, fmt.Errorf("keysym %q is not bound to any keycode", name)
		}
		for _, c := range found {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	}
	return codes, nil
}

// ParseKeysym converts a keysym name such as "Caps_Lock" or a literal such
// as "0xffe5" to its value.
func ParseKeysym(name string) (Keysym, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "0x") || strings.HasPrefix(name, "0X") {
		v, err := strconv.ParseUint(name[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid keysym %q: %w", name, err)
		}
		return Keysym(v), nil
	}
	if sym, ok := keysymByName[name]; ok {
		return sym, nil
	}
	// single latin-1 characters map to themselves
	if len(name) == 1 && name[0] >= 0x20 && name[0] < 0x7f {
		return Keysym(strings.ToLower(name)[0]), nil
	}
	return 0, fmt.Errorf("unknown keysym: %q", name)
}

// KeysymName returns the name of sym, or its hex value when unnamed.
func KeysymName(sym Keysym) string {
	if name, ok := nameByKeysym[sym]; ok {
		return name
	}
	if sym == 0 {
		return "NoSymbol"
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}

// KeyName describes code by the keysym in its first column.
func KeyName(code Keycode, km *KeyboardMap) string {
	return KeysymName(km.Keysym(code, 0))
}

var keysymByName = map[string]Keysym{
	"BackSpace": 0xff08, "Tab": 0xff09, "Return": 0xff0d, "Pause": 0xff13,
	"Scroll_Lock": 0xff14, "Escape": 0xff1b, "Delete": 0xffff,
	"Home": 0xff50, "Left": 0xff51, "Up": 0xff52, "Right": 0xff53,
	"Down": 0xff54, "Prior": 0xff55, "Next": 0xff56, "End": 0xff57,
	"Print": 0xff61, "Insert": 0xff63, "Menu": 0xff67, "Num_Lock": 0xff7f,
	"Mode_switch": 0xff7e, "ISO_Level3_Shift": 0xfe03,

	"F1": 0xffbe, "F2": 0xffbf, "F3": 0xffc0, "F4": 0xffc1,
	"F5": 0xffc2, "F6": 0xffc3, "F7": 0xffc4, "F8": 0xffc5,
	"F9": 0xffc6, "F10": 0xffc7, "F11": 0xffc8, "F12": 0xffc9,

	"Shift_L": 0xffe1, "Shift_R": 0xffe2, "Control_L": 0xffe3,
	"Control_R": 0xffe4, "Caps_Lock": 0xffe5, "Shift_Lock": 0xffe6,
	"Meta_L": 0xffe7, "Meta_R": 0xffe8, "Alt_L": 0xffe9, "Alt_R": 0xffea,
	"Super_L": 0xffeb, "Super_R": 0xffec, "Hyper_L": 0xffed, "Hyper_R": 0xffee,

	"space": 0x20, "apostrophe": 0x27, "comma": 0x2c, "minus": 0x2d,
	"period": 0x2e, "slash": 0x2f, "semicolon": 0x3b, "equal": 0x3d,
	"bracketleft": 0x5b, "backslash": 0x5c, "bracketright": 0x5d,
	"grave": 0x60,
}

var nameByKeysym = func() map[Keysym]string {
	m := make(map[Keysym]string, len(keysymByName))
	for name, sym := range keysymByName {
		m[sym] = name
	}
	return m
}()
