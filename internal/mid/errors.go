package mid

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify failures. Typed errors below match them
// through errors.Is.
var (
	// ErrInvalidFormat is returned when a value is not a canonical identifier.
	ErrInvalidFormat = errors.New("invalid identifier format")

	// ErrReadFailure is returned when the live identifier cannot be read.
	ErrReadFailure = errors.New("reading machine identifier failed")

	// ErrWriteFailure is returned when the live identifier cannot be written.
	ErrWriteFailure = errors.New("writing machine identifier failed")

	// ErrPermissionDenied marks write failures caused by missing privileges.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStorage is returned when the backup history cannot be read or persisted.
	ErrStorage = errors.New("backup storage failure")

	// ErrBackupNotFound is returned when a backup id is unknown.
	ErrBackupNotFound = errors.New("backup not found")

	// ErrUnsupported is returned when the platform cannot perform an operation.
	ErrUnsupported = errors.New("operation not supported on this platform")
)

// FormatError records a value that failed identifier validation.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid identifier format: %q", e.Value)
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

// StoreError records a failed identifier store operation.
// Op is "read" or "write"; Source names the storage location.
type StoreError struct {
	Op     string
	Source string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is lets a StoreError match the read or write sentinel for its Op.
func (e *StoreError) Is(target error) bool {
	switch e.Op {
	case "read":
		return target == ErrReadFailure
	case "write":
		return target == ErrWriteFailure
	}
	return false
}

// StorageError records a failure of the backup repository.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("backup storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NotFoundError records an unknown backup id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backup not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrBackupNotFound }

// Error categories reported by Category.
const (
	CategoryValidation  = "validation"
	CategoryRead        = "read"
	CategoryPermission  = "permission"
	CategoryWrite       = "write"
	CategoryStorage     = "storage"
	CategoryNotFound    = "not_found"
	CategoryUnsupported = "unsupported"
	CategoryUnknown     = "unknown"
)

// Category classifies err into one of the Category* constants.
// Permission and unsupported take precedence over the generic read and write
// classes, and a malformed stored value reads as a read failure.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return CategoryPermission
	case errors.Is(err, ErrUnsupported):
		return CategoryUnsupported
	case errors.Is(err, ErrReadFailure):
		return CategoryRead
	case errors.Is(err, ErrInvalidFormat):
		return CategoryValidation
	case errors.Is(err, ErrStorage):
		return CategoryStorage
	case errors.Is(err, ErrBackupNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrWriteFailure):
		return CategoryWrite
	default:
		return CategoryUnknown
	}
}
