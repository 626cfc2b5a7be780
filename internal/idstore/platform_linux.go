//go:build linux

package idstore

import "mid-go/internal/mid"

// MachineIDPaths are read in order; writes go to the first.
var MachineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// NewPlatformStore returns the store for the operating system's own identifier.
func NewPlatformStore() (mid.IdentifierStore, error) {
	return NewFileStore(true, MachineIDPaths...)
}
