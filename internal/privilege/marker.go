package privilege

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"mid-go/internal/mid"
)

// RestartValidity is how long a restart marker counts as fresh.
const RestartValidity = 60 * time.Second

// RestartState is written just before an elevated relaunch so the new process
// can tell it was started by one.
type RestartState struct {
	Timestamp    int64  `json:"timestamp" yaml:"timestamp"` // unix milliseconds
	WasRestarted bool   `json:"was_restarted" yaml:"was_restarted"`
	Platform     string `json:"platform" yaml:"platform"`
}

// RestartMarker persists a RestartState in a small JSON file.
type RestartMarker struct {
	path  string
	clock mid.Clock
}

// NewRestartMarker creates a marker stored at path.
func NewRestartMarker(path string, clock mid.Clock) *RestartMarker {
	return &RestartMarker{path: path, clock: clock}
}

// Write records that a restart is about to happen.
func (m *RestartMarker) Write() error {
	state := RestartState{
		Timestamp:    m.clock.Now().UnixMilli(),
		WasRestarted: true,
		Platform:     runtime.GOOS,
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding restart state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create restart state directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("writing restart state: %w", err)
	}
	return nil
}

// Consume reads and deletes the marker. It returns nil when there is no marker
// or the marker is older than RestartValidity; either way the file is gone.
func (m *RestartMarker) Consume() (*RestartState, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading restart state: %w", err)
	}
	if err := m.Clear(); err != nil {
		return nil, err
	}

	var state RestartState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding restart state: %w", err)
	}

	age := m.clock.Now().Sub(time.UnixMilli(state.Timestamp))
	if age > RestartValidity || age < 0 {
		return nil, nil
	}
	return &state, nil
}

// Clear removes the marker if present.
func (m *RestartMarker) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing restart state: %w", err)
	}
	return nil
}
