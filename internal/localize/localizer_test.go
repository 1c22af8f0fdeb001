package localize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbuild/internal/target"
)

type mapResolver map[string]string

func (m mapResolver) GetString(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

type recordingRegistrar struct{ paths []string }

func (r *recordingRegistrar) Register(paths ...string) { r.paths = append(r.paths, paths...) }

var localized = target.Target{LocaleName: "de", IsLocalized: true, ResourceCatalogPath: "foo.de.resources"}

func TestLocalize_UnresolvedTokenLeftIntact(t *testing.T) {
	res := Localize(`<a>{Resource:Missing}</a>`, localized, mapResolver{})
	assert.Equal(t, `<a>{Resource:Missing}</a>`, res.Text)
	assert.Equal(t, []string{"Missing"}, res.Unresolved)
}

func TestLocalize_ReplacesAllOccurrences(t *testing.T) {
	text := "{Resource:Greeting} a {Resource:Greeting} b {Resource:Greeting}"
	res := Localize(text, localized, mapResolver{"Greeting": "Hi"})
	assert.Equal(t, "Hi a Hi b Hi", res.Text)
	assert.Empty(t, res.Unresolved)
}

func TestLocalize_MixedTokens(t *testing.T) {
	text := "{Resource:A}-{Resource:Nope}-{Resource:B}-{Resource:Nope}"
	res := Localize(text, localized, mapResolver{"A": "1", "B": ""})
	assert.Equal(t, "1-{Resource:Nope}--{Resource:Nope}", res.Text)
	assert.Equal(t, []string{"Nope"}, res.Unresolved)
}

func TestLocalize_UnterminatedTokenStopsScanning(t *testing.T) {
	text := "{Resource:A} then {Resource:B and {Resource:A"
	res := Localize(text, localized, mapResolver{"A": "x", "B and {Resource:A": "never"})
	// The second token's key runs to the first end marker, which does not exist.
	assert.Equal(t, "x then {Resource:B and {Resource:A", res.Text)
}

func TestLocalize_ValueIsNotRescanned(t *testing.T) {
	res := Localize("{Resource:Loop}", localized, mapResolver{"Loop": "{Resource:Loop}!"})
	assert.Equal(t, "{Resource:Loop}!", res.Text)
}

func TestLocalize_ResumesAfterEarlierCopiesShrink(t *testing.T) {
	// A's value plants a copy of B before B's own position; replacing B then
	// shortens the text ahead of the scan.
	text := "{Resource:A} {Resource:B} {Resource:C}"
	res := Localize(text, localized, mapResolver{"A": "{Resource:B}", "B": "", "C": "c"})
	assert.Equal(t, "  c", res.Text)
	assert.Empty(t, res.Unresolved)
}

func TestLocalize_ResumesAfterEarlierCopiesGrow(t *testing.T) {
	text := "{Resource:A}|{Resource:B}|{Resource:C}"
	res := Localize(text, localized, mapResolver{"A": "{Resource:B}", "B": "0123456789012345678901234567890", "C": "c"})
	assert.Equal(t, "0123456789012345678901234567890|0123456789012345678901234567890|c", res.Text)
}

func TestLocalize_NonLocalizedTargetPassesThrough(t *testing.T) {
	text := "<x>{Resource:Greeting}</x>"
	res := Localize(text, target.Target{}, mapResolver{"Greeting": "Hi"})
	assert.Equal(t, text, res.Text)
}

func TestRenderedPath(t *testing.T) {
	tpl := filepath.Join("src", "ribbon.xml")
	assert.Equal(t, filepath.Join("src", "ribbon.default.build.xml"), RenderedPath(tpl, target.Target{}, ""))
	assert.Equal(t, filepath.Join("src", "ribbon.de-AT.build.xml"), RenderedPath(tpl, target.Target{LocaleName: "de-AT"}, ""))
	assert.Equal(t, filepath.Join("obj", "ribbon.de.build.xml"), RenderedPath(tpl, target.Target{LocaleName: "de"}, "obj"))
}

func TestWriteRendered_RegistersAndWrites(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "ribbon.xml")
	reg := &recordingRegistrar{}

	path, err := WriteRendered(tpl, localized, "", Result{Text: "hallo"}, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, reg.paths)
	assert.True(t, strings.HasSuffix(path, "ribbon.de.build.xml"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hallo", string(got))
}
