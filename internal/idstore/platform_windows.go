//go:build windows

package idstore

import "mid-go/internal/mid"

// NewPlatformStore returns the store for the operating system's own identifier.
func NewPlatformStore() (mid.IdentifierStore, error) {
	return NewRegistryStore(), nil
}
