package mid

// Reading is a machine identifier together with where it was read from.
type Reading struct {
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

// IdentifierStore provides platform-specific access to the live machine identifier.
// Implementations know nothing about backups.
type IdentifierStore interface {
	// Read fetches the current identifier. It fails if the location is
	// inaccessible, the value is absent, or the value is not a valid identifier.
	Read() (*Reading, error)

	// Write replaces the stored identifier in place. Failures caused by missing
	// privileges wrap ErrPermissionDenied.
	Write(value string) error

	// ProbeWrite checks write access without changing the stored value.
	// It returns an error wrapping ErrPermissionDenied when access is refused.
	ProbeWrite() error

	// Source describes the storage location, e.g. a registry path or file name.
	Source() string
}
