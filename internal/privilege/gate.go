// Package privilege decides whether the process may write the machine
// identifier and relaunches it elevated when it may not.
package privilege

import (
	"errors"
	"fmt"
	"os"

	"mid-go/internal/mid"
)

// MethodWriteProbe is the check method reported by Gate.Check.
const MethodWriteProbe = "write-probe"

// Gate implements mid.PrivilegeGate on top of the identifier store's write
// probe and the platform's notion of an elevated process.
type Gate struct {
	store  mid.IdentifierStore
	marker *RestartMarker
	logger mid.Logger

	// relaunchArgs are the arguments the elevated copy is started with.
	relaunchArgs []string

	isElevated func() bool
	relaunch   func(exe string, args []string) (string, error)
	executable func() (string, error)
}

// NewGate creates a Gate for store. An elevation request writes marker and
// starts the current executable again with relaunchArgs.
func NewGate(store mid.IdentifierStore, marker *RestartMarker, logger mid.Logger, relaunchArgs []string) *Gate {
	return &Gate{
		store:        store,
		marker:       marker,
		logger:       logger,
		relaunchArgs: relaunchArgs,
		isElevated:   isElevated,
		relaunch:     relaunchElevated,
		executable:   os.Executable,
	}
}

// Check reports whether the identifier can be written. A refused probe is a
// negative answer, not an error; any other probe failure is.
func (g *Gate) Check() (*mid.PermissionStatus, error) {
	status := &mid.PermissionStatus{
		Elevated: g.isElevated(),
		Method:   MethodWriteProbe,
		Target:   g.store.Source(),
	}

	err := g.store.ProbeWrite()
	switch {
	case err == nil:
		status.HasPermission = true
	case errors.Is(err, mid.ErrPermissionDenied):
		status.Detail = "administrator privileges are required to change the identifier"
	case errors.Is(err, mid.ErrUnsupported):
		status.Detail = "the identifier cannot be changed on this platform"
	default:
		return nil, fmt.Errorf("checking write access: %w", err)
	}

	g.logger.Debug("permission checked", "has_permission", status.HasPermission, "elevated", status.Elevated)
	return status, nil
}

// RequestElevation records the restart marker and relaunches the executable
// elevated. It returns as soon as the new process has been started; the
// caller is expected to exit. An already elevated process is not relaunched.
func (g *Gate) RequestElevation() (*mid.Elevation, error) {
	if g.isElevated() {
		return &mid.Elevation{Relaunched: false, Method: "none"}, nil
	}

	exe, err := g.executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}

	if err := g.marker.Write(); err != nil {
		return nil, err
	}

	method, err := g.relaunch(exe, g.relaunchArgs)
	if err != nil {
		if cerr := g.marker.Clear(); cerr != nil {
			g.logger.Warn("restart state not removed", "error", cerr)
		}
		return nil, err
	}

	g.logger.Info("elevated relaunch started", "method", method)
	return &mid.Elevation{Relaunched: true, Method: method}, nil
}

var _ mid.PrivilegeGate = (*Gate)(nil)
