package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrParseFailed      = errors.New("catalog parse failed")
	ErrNoDefaultCulture = errors.New("no default culture")
)

// ParseError reports a malformed resource document. It is scoped to the
// targets whose culture chain includes Path.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrParseFailed, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", ErrParseFailed, e.Path, e.Cause)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParseFailed, e.Cause} }
