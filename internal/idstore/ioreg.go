package idstore

import (
	"context"
	"fmt"
	"regexp"

	"mid-go/internal/mid"
)

// IORegSource describes where an IORegStore reads from.
const IORegSource = "IOPlatformExpertDevice/IOPlatformUUID"

var platformUUIDPattern = regexp.MustCompile(`"IOPlatformUUID" = "([^"]+)"`)

// IORegStore reads the hardware platform UUID reported by ioreg.
// The value is burned into the hardware and cannot be written.
type IORegStore struct {
	executor CommandExecutor
}

// NewIORegStore creates a store running ioreg through executor.
// A nil executor runs the real command with DefaultCommandTimeout.
func NewIORegStore(executor CommandExecutor) *IORegStore {
	if executor == nil {
		executor = &ExecCommandExecutor{Timeout: DefaultCommandTimeout}
	}
	return &IORegStore{executor: executor}
}

func (s *IORegStore) Read() (*mid.Reading, error) {
	out, err := s.executor.Execute(context.Background(), "ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	if err != nil {
		return nil, &mid.StoreError{Op: "read", Source: IORegSource, Err: err}
	}

	m := platformUUIDPattern.FindStringSubmatch(out)
	if len(m) < 2 {
		return nil, &mid.StoreError{Op: "read", Source: IORegSource, Err: fmt.Errorf("IOPlatformUUID not found")}
	}
	if err := mid.Validate(m[1]); err != nil {
		return nil, &mid.StoreError{Op: "read", Source: IORegSource, Err: err}
	}
	return &mid.Reading{Value: m[1], Source: IORegSource}, nil
}

func (s *IORegStore) Write(value string) error {
	if err := mid.Validate(value); err != nil {
		return err
	}
	return &mid.StoreError{Op: "write", Source: IORegSource, Err: mid.ErrUnsupported}
}

func (s *IORegStore) ProbeWrite() error {
	return &mid.StoreError{Op: "write", Source: IORegSource, Err: mid.ErrUnsupported}
}

func (s *IORegStore) Source() string { return IORegSource }

var _ mid.IdentifierStore = (*IORegStore)(nil)
