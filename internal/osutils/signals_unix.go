//go:build unix

package osutils

import (
	"os"

	"golang.org/x/sys/unix"
)

// ShutdownSignals returns the signals that stop the daemon
func ShutdownSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM}
}

// ReloadSignals returns the signals that trigger a configuration reload
func ReloadSignals() []os.Signal {
	return []os.Signal{unix.SIGHUP}
}
