package app

import (
	"time"

	"mid-go/internal/mid"
)

// Operation tracks the CLI command being run. Its outcome is logged when the
// app is closed.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Category   string
	StartedAt  time.Time
}

// NewOperation creates a new operation that has not failed yet.
func NewOperation(id, name, parameters string, startedAt time.Time) *Operation {
	return &Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		StartedAt:  startedAt,
	}
}

// Fail marks the operation failed with the category of err.
// A nil err leaves the operation untouched.
func (op *Operation) Fail(err error) {
	if err == nil {
		return
	}
	op.Status = "error"
	op.Category = mid.Category(err)
}

// Failed returns true if Fail has been called with an error.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
