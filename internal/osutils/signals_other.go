//go:build !unix

package osutils

import "os"

// ShutdownSignals returns the signals that stop the daemon
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// ReloadSignals is empty on this platform
func ReloadSignals() []os.Signal {
	return nil
}
