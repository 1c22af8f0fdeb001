package toolchain

import (
	"errors"
	"fmt"
)

var ErrBuildFailed = errors.New("build failed")

// Stage identifies the toolchain step a failure is attributed to.
type Stage string

const (
	StageScript   Stage = "script"
	StageMarkup   Stage = "markup"
	StageResource Stage = "resource"
	StageLink     Stage = "link"
)

// BuildError reports a toolchain stage that did not produce its expected
// artifact. Tool is the presumed responsible executable.
type BuildError struct {
	Stage    Stage
	Tool     string
	Artifact string
	Cause    error
}

func (e *BuildError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Artifact != "" && e.Tool != "":
		return fmt.Sprintf("%s: %s stage: %s was not produced (check %s output)", ErrBuildFailed, e.Stage, e.Artifact, e.Tool)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s stage: %v", ErrBuildFailed, e.Stage, e.Cause)
	default:
		return fmt.Sprintf("%s: %s stage", ErrBuildFailed, e.Stage)
	}
}

func (e *BuildError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrBuildFailed}
	}
	return []error{ErrBuildFailed, e.Cause}
}

// FailedStage returns the stage recorded in err, if err carries a BuildError.
func FailedStage(err error) (Stage, bool) {
	var be *BuildError
	if errors.As(err, &be) && be != nil {
		return be.Stage, true
	}
	return "", false
}
