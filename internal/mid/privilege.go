package mid

// PermissionStatus is the result of a privilege check.
type PermissionStatus struct {
	HasPermission bool   `json:"has_permission" yaml:"has_permission"`
	Elevated      bool   `json:"elevated" yaml:"elevated"`
	Method        string `json:"method" yaml:"method"`
	Target        string `json:"target" yaml:"target"`
	Detail        string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Elevation describes an accepted elevation request.
// When Relaunched is true an elevated copy of the process has been started and
// the caller should shut down once it has reported the outcome.
type Elevation struct {
	Relaunched bool   `json:"relaunched" yaml:"relaunched"`
	Method     string `json:"method" yaml:"method"`
}

// PrivilegeGate checks and requests the rights needed to write the identifier.
type PrivilegeGate interface {
	// Check reports whether the process may write the identifier. An error is
	// returned only when the check itself could not be carried out.
	Check() (*PermissionStatus, error)

	// RequestElevation asks the platform to relaunch the process with higher
	// privileges. It does not wait for the relaunched process.
	RequestElevation() (*Elevation, error)
}
