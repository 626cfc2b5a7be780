package idstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mid-go/internal/mid"
)

var errNoIdentifier = errors.New("no identifier present")

// FileStore keeps the identifier in a file. Reads try each path in order and
// use the first one holding a value; writes always go to the first path.
//
// In compact mode the file holds 32 lower-case hex digits without dashes (the
// systemd machine-id form) and values are converted to and from the canonical
// form at the boundary.
type FileStore struct {
	paths   []string
	compact bool
}

// NewFileStore creates a store over paths. At least one path is required.
func NewFileStore(compact bool, paths ...string) (*FileStore, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("file identifier store requires a path")
	}
	return &FileStore{paths: paths, compact: compact}, nil
}

func (s *FileStore) Read() (*mid.Reading, error) {
	var lastErr error = errNoIdentifier
	for _, p := range s.paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				lastErr = err
			}
			continue
		}
		raw := strings.TrimSpace(string(data))
		if raw == "" {
			continue
		}

		value, err := s.decode(raw)
		if err != nil {
			return nil, &mid.StoreError{Op: "read", Source: p, Err: err}
		}
		return &mid.Reading{Value: value, Source: p}, nil
	}
	return nil, &mid.StoreError{Op: "read", Source: s.Source(), Err: lastErr}
}

func (s *FileStore) decode(raw string) (string, error) {
	if s.compact {
		return mid.Canonical(raw)
	}
	if err := mid.Validate(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *FileStore) Write(value string) error {
	if err := mid.Validate(value); err != nil {
		return err
	}
	content := value
	if s.compact {
		c, err := mid.Compact(value)
		if err != nil {
			return err
		}
		content = c
	}

	// Overwrite in place: the file keeps its inode, owner and mode.
	f, err := os.OpenFile(s.Source(), os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0444)
	if err != nil {
		return s.writeError(err)
	}
	if _, err := f.WriteString(content + "\n"); err != nil {
		f.Close()
		return s.writeError(err)
	}
	if err := f.Close(); err != nil {
		return s.writeError(err)
	}
	return nil
}

// ProbeWrite opens the target for writing without truncating it. When the
// file does not exist yet, creating a file next to it is probed instead.
func (s *FileStore) ProbeWrite() error {
	f, err := os.OpenFile(s.Source(), os.O_WRONLY, 0)
	if err == nil {
		return f.Close()
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return s.writeError(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Source()), ".probe-*")
	if err != nil {
		return s.writeError(err)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}

func (s *FileStore) Source() string { return s.paths[0] }

func (s *FileStore) writeError(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		err = fmt.Errorf("%w: %v", mid.ErrPermissionDenied, err)
	}
	return &mid.StoreError{Op: "write", Source: s.Source(), Err: err}
}

var _ mid.IdentifierStore = (*FileStore)(nil)
