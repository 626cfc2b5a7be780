//go:build !linux && !darwin && !windows

package idstore

import (
	"fmt"
	"runtime"

	"mid-go/internal/mid"
)

// NewPlatformStore returns the store for the operating system's own identifier.
func NewPlatformStore() (mid.IdentifierStore, error) {
	return nil, fmt.Errorf("%s: %w", runtime.GOOS, mid.ErrUnsupported)
}
