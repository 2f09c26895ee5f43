// Package osutils holds small operating system helpers used by the daemon.
package osutils

import (
	"os"
	"strings"
)

// SessionType reports the desktop session type from XDG_SESSION_TYPE
// ("x11", "wayland", "tty"), or "" when unknown.
func SessionType() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
}

// IsWayland reports whether the session is Wayland. Under XWayland the
// RECORD extension only sees X clients.
func IsWayland() bool {
	if SessionType() == "wayland" {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}
