package privilege

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mid-go/internal/idstore"
	"mid-go/internal/mid"
	"mid-go/internal/testutil"
)

const liveID = "550e8400-e29b-41d4-a716-446655440000"

type relaunchCall struct {
	exe  string
	args []string
}

func newTestGate(t *testing.T, store mid.IdentifierStore, elevated bool) (*Gate, *[]relaunchCall) {
	t.Helper()
	marker := NewRestartMarker(filepath.Join(t.TempDir(), "restart.json"), testutil.FixedClock())
	g := NewGate(store, marker, mid.NewNopLogger(), []string{"permission", "restart-state"})

	var calls []relaunchCall
	g.isElevated = func() bool { return elevated }
	g.executable = func() (string, error) { return "/usr/local/bin/mid", nil }
	g.relaunch = func(exe string, args []string) (string, error) {
		calls = append(calls, relaunchCall{exe: exe, args: args})
		return "pkexec", nil
	}
	return g, &calls
}

func TestGate_Check(t *testing.T) {
	tests := []struct {
		name      string
		probeErr  error
		elevated  bool
		wantPerm  bool
		wantError bool
	}{
		{name: "writable", wantPerm: true},
		{name: "writable and elevated", elevated: true, wantPerm: true},
		{name: "permission denied", probeErr: mid.ErrPermissionDenied},
		{name: "unsupported", probeErr: mid.ErrUnsupported},
		{name: "probe broken", probeErr: errors.New("device not ready"), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := idstore.NewMemoryStore(liveID)
			store.FailProbes(tt.probeErr)
			g, _ := newTestGate(t, store, tt.elevated)

			status, err := g.Check()
			if tt.wantError {
				if err == nil {
					t.Fatal("Check() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if status.HasPermission != tt.wantPerm {
				t.Errorf("HasPermission = %v, want %v", status.HasPermission, tt.wantPerm)
			}
			if status.Elevated != tt.elevated {
				t.Errorf("Elevated = %v, want %v", status.Elevated, tt.elevated)
			}
			if status.Method != MethodWriteProbe {
				t.Errorf("Method = %q, want %q", status.Method, MethodWriteProbe)
			}
			if status.Target != idstore.MemorySource {
				t.Errorf("Target = %q", status.Target)
			}
			if !tt.wantPerm && status.Detail == "" {
				t.Error("Detail is empty for a refused check")
			}
		})
	}
}

func TestGate_RequestElevation(t *testing.T) {
	g, calls := newTestGate(t, idstore.NewMemoryStore(liveID), false)

	elev, err := g.RequestElevation()
	if err != nil {
		t.Fatalf("RequestElevation() error = %v", err)
	}
	if !elev.Relaunched || elev.Method != "pkexec" {
		t.Errorf("RequestElevation() = %+v", elev)
	}

	want := []relaunchCall{{exe: "/usr/local/bin/mid", args: []string{"permission", "restart-state"}}}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("relaunch calls = %+v, want %+v", *calls, want)
	}

	state, err := g.marker.Consume()
	if err != nil || state == nil || !state.WasRestarted {
		t.Errorf("marker after elevation = %+v, %v; want fresh restart state", state, err)
	}
}

func TestGate_RequestElevation_AlreadyElevated(t *testing.T) {
	g, calls := newTestGate(t, idstore.NewMemoryStore(liveID), true)

	elev, err := g.RequestElevation()
	if err != nil {
		t.Fatalf("RequestElevation() error = %v", err)
	}
	if elev.Relaunched {
		t.Error("Relaunched = true for an elevated process")
	}
	if len(*calls) != 0 {
		t.Errorf("relaunch called %d times", len(*calls))
	}
}

func TestGate_RequestElevation_RelaunchFails(t *testing.T) {
	g, _ := newTestGate(t, idstore.NewMemoryStore(liveID), false)
	g.relaunch = func(string, []string) (string, error) {
		return "", mid.ErrUnsupported
	}

	_, err := g.RequestElevation()
	if mid.Category(err) != mid.CategoryUnsupported {
		t.Fatalf("RequestElevation() error = %v, want unsupported", err)
	}
	if _, statErr := os.Stat(g.marker.path); !os.IsNotExist(statErr) {
		t.Error("restart marker left behind after failed relaunch")
	}
}
