package mid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// identifierPattern is the canonical structured-hex shape of a machine identifier.
var identifierPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// compactPattern matches the dashless 32 hex form used by systemd's /etc/machine-id.
var compactPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// Validate reports whether candidate is a well-formed machine identifier.
// The whole string must match; surrounding whitespace is not accepted.
func Validate(candidate string) error {
	if !identifierPattern.MatchString(candidate) {
		return &FormatError{Value: candidate}
	}
	return nil
}

// SameIdentifier compares two identifiers ignoring hex case.
func SameIdentifier(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Canonical converts a dashless 32 hex identifier into the dashed form.
// Already canonical input is returned unchanged.
func Canonical(raw string) (string, error) {
	if identifierPattern.MatchString(raw) {
		return raw, nil
	}
	if !compactPattern.MatchString(raw) {
		return "", &FormatError{Value: raw}
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", raw[0:8], raw[8:12], raw[12:16], raw[16:20], raw[20:32]), nil
}

// Compact strips the dashes from a canonical identifier and lower-cases it.
func Compact(id string) (string, error) {
	if err := Validate(id); err != nil {
		return "", err
	}
	return strings.ToLower(strings.ReplaceAll(id, "-", "")), nil
}

// NewRandomIdentifier returns a fresh identifier built from 16 random bytes.
func NewRandomIdentifier() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating random identifier: %w", err)
	}
	return u.String(), nil
}
