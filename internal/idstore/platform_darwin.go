//go:build darwin

package idstore

import "mid-go/internal/mid"

// NewPlatformStore returns the store for the operating system's own identifier.
func NewPlatformStore() (mid.IdentifierStore, error) {
	return NewIORegStore(nil), nil
}
