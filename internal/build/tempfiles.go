package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrCleanupFailed = errors.New("cleanup failed")

// CleanupError reports one temporary file that could not be removed.
type CleanupError struct {
	Path  string
	Cause error
}

func (e *CleanupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrCleanupFailed, e.Path, e.Cause)
}

func (e *CleanupError) Unwrap() []error { return []error{ErrCleanupFailed, e.Cause} }

// TemporaryFileSet tracks the files created for the build in progress.
// Registering a path that does not exist yet is expected.
type TemporaryFileSet struct {
	paths []string
	seen  map[string]struct{}
}

func NewTemporaryFileSet() *TemporaryFileSet {
	return &TemporaryFileSet{seen: make(map[string]struct{})}
}

// Register adds paths, ignoring empty strings and duplicates.
func (s *TemporaryFileSet) Register(paths ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		key := filepath.Clean(p)
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.paths = append(s.paths, p)
	}
}

// Paths returns the registered paths in registration order.
func (s *TemporaryFileSet) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func (s *TemporaryFileSet) Len() int { return len(s.paths) }

// Reset forgets every path without touching the filesystem.
func (s *TemporaryFileSet) Reset() {
	s.paths = nil
	s.seen = make(map[string]struct{})
}

// RemoveAll deletes every registered path, newest first, and empties the
// set. Paths that never materialized are not failures. Every other removal
// error is returned as a *CleanupError; removal continues past failures.
func (s *TemporaryFileSet) RemoveAll() []error {
	var errs []error
	for i := len(s.paths) - 1; i >= 0; i-- {
		p := s.paths[i]
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, &CleanupError{Path: p, Cause: err})
		}
	}
	s.Reset()
	return errs
}
