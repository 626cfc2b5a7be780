// Package idstore reads and writes the live machine identifier where the
// operating system keeps it.
package idstore

import (
	"sync"

	"mid-go/internal/mid"
)

// MemorySource is the Source of a MemoryStore.
const MemorySource = "memory"

// MemoryStore keeps the identifier in memory. Failures can be injected to
// exercise error paths. This implementation is safe for concurrent use.
type MemoryStore struct {
	mu       sync.Mutex
	value    string
	readErr  error
	writeErr error
	probeErr error
	writes   int
}

// NewMemoryStore creates a store holding value.
func NewMemoryStore(value string) *MemoryStore {
	return &MemoryStore{value: value}
}

func (s *MemoryStore) Read() (*mid.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return nil, &mid.StoreError{Op: "read", Source: MemorySource, Err: s.readErr}
	}
	if s.value == "" {
		return nil, &mid.StoreError{Op: "read", Source: MemorySource, Err: errNoIdentifier}
	}
	if err := mid.Validate(s.value); err != nil {
		return nil, &mid.StoreError{Op: "read", Source: MemorySource, Err: err}
	}
	return &mid.Reading{Value: s.value, Source: MemorySource}, nil
}

func (s *MemoryStore) Write(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return &mid.StoreError{Op: "write", Source: MemorySource, Err: s.writeErr}
	}
	if err := mid.Validate(value); err != nil {
		return err
	}
	s.value = value
	s.writes++
	return nil
}

func (s *MemoryStore) ProbeWrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.probeErr != nil {
		return &mid.StoreError{Op: "write", Source: MemorySource, Err: s.probeErr}
	}
	return nil
}

func (s *MemoryStore) Source() string { return MemorySource }

// Value returns the stored identifier without validation.
func (s *MemoryStore) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the stored identifier without validation.
func (s *MemoryStore) Set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

// Writes returns how many writes succeeded.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailReads makes subsequent reads fail with err. A nil err clears the failure.
func (s *MemoryStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes subsequent writes fail with err. A nil err clears the failure.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// FailProbes makes subsequent write probes fail with err.
func (s *MemoryStore) FailProbes(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probeErr = err
}

var _ mid.IdentifierStore = (*MemoryStore)(nil)
