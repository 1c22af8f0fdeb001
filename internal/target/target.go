// Package target enumerates the build targets for one template document.
package target

// CatalogExtension is the extension of resource catalog documents.
const CatalogExtension = ".resources"

// NeutralName is the display name of the neutral target. It is reserved: no
// locale catalog may use it.
const NeutralName = "default"

// Target describes one build output. Targets are created once per discovery
// pass and never mutated.
type Target struct {
	// LocaleName is empty for the neutral target.
	LocaleName string `json:"locale,omitempty"`

	// IsLocalized is true iff ResourceCatalogPath is set.
	IsLocalized bool `json:"localized"`

	ResourceCatalogPath string `json:"catalog,omitempty"`
	OutputArtifactPath  string `json:"output"`
}

// IsNeutral reports whether t is the neutral (default culture) target.
func (t Target) IsNeutral() bool { return t.LocaleName == "" }

// DisplayName returns the locale name, or NeutralName for the neutral target.
func (t Target) DisplayName() string {
	if t.IsNeutral() {
		return NeutralName
	}
	return t.LocaleName
}
