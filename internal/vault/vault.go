// Package vault stores encrypted backup archives away from the host.
package vault

import "errors"

// ErrNotFound is returned when a host has no item under the requested name.
var ErrNotFound = errors.New("archive not found in vault")
