package report

import (
	"errors"

	"locbuild/internal/catalog"
	"locbuild/internal/target"
	"locbuild/internal/toolchain"
)

// Class is the coarse failure taxonomy shown to users.
type Class string

const (
	ClassDiscovery Class = "discovery"
	ClassCatalog   Class = "catalog"
	ClassBuild     Class = "build"
	ClassInternal  Class = "internal"
)

// Failure is the serializable description of a failed target.
type Failure struct {
	Class   Class  `json:"class"`
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Message string `json:"message"`
}

// Classify maps err onto the failure taxonomy. Unknown errors are internal.
func Classify(err error) Failure {
	if err == nil {
		return Failure{}
	}

	var be *toolchain.BuildError
	if errors.As(err, &be) && be != nil {
		return Failure{
			Class:   ClassBuild,
			Code:    "BuildFailed",
			Stage:   string(be.Stage),
			Tool:    be.Tool,
			Message: err.Error(),
		}
	}

	switch {
	case errors.Is(err, target.ErrDiscoveryFailed):
		return Failure{Class: ClassDiscovery, Code: "DiscoveryFailed", Message: err.Error()}
	case errors.Is(err, catalog.ErrNoDefaultCulture):
		return Failure{Class: ClassCatalog, Code: "NoDefaultCulture", Message: err.Error()}
	case errors.Is(err, catalog.ErrParseFailed):
		return Failure{Class: ClassCatalog, Code: "CatalogParseFailed", Message: err.Error()}
	case errors.Is(err, toolchain.ErrBuildFailed):
		return Failure{Class: ClassBuild, Code: "BuildFailed", Message: err.Error()}
	default:
		return Failure{Class: ClassInternal, Code: "InternalError", Message: err.Error()}
	}
}
