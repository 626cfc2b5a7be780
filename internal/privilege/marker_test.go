package privilege

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"mid-go/internal/testutil"
)

func TestRestartMarker_WriteConsume(t *testing.T) {
	clock := testutil.FixedClock()
	path := filepath.Join(t.TempDir(), "state", "restart.json")
	marker := NewRestartMarker(path, clock)

	if err := marker.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	clock.Advance(5 * time.Second)
	state, err := marker.Consume()
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if state == nil {
		t.Fatal("Consume() = nil, want fresh state")
	}
	if !state.WasRestarted {
		t.Error("WasRestarted = false")
	}
	if state.Platform != runtime.GOOS {
		t.Errorf("Platform = %q, want %q", state.Platform, runtime.GOOS)
	}
	if state.Timestamp != testutil.FixedClock().Now().UnixMilli() {
		t.Errorf("Timestamp = %d", state.Timestamp)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("marker file still present after Consume: %v", err)
	}

	again, err := marker.Consume()
	if err != nil || again != nil {
		t.Errorf("second Consume() = %+v, %v; want nil, nil", again, err)
	}
}

func TestRestartMarker_Stale(t *testing.T) {
	clock := testutil.FixedClock()
	path := filepath.Join(t.TempDir(), "restart.json")
	marker := NewRestartMarker(path, clock)

	if err := marker.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	clock.Advance(RestartValidity + time.Second)

	state, err := marker.Consume()
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if state != nil {
		t.Errorf("Consume() = %+v, want nil for stale marker", state)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("stale marker file was not removed")
	}
}

func TestRestartMarker_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restart.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewRestartMarker(path, testutil.FixedClock()).Consume(); err == nil {
		t.Fatal("Consume() expected error for corrupt marker")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt marker file was not removed")
	}
}
