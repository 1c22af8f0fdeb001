package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locbuild/internal/catalog"
	"locbuild/internal/target"
	"locbuild/internal/toolchain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		class Class
		code  string
		stage string
	}{
		{"discovery", &target.DiscoveryError{Path: "x", Cause: os.ErrPermission}, ClassDiscovery, "DiscoveryFailed", ""},
		{"parse", &catalog.ParseError{Path: "a.resources", Cause: errors.New("bad")}, ClassCatalog, "CatalogParseFailed", ""},
		{"no default", fmt.Errorf("%w: none", catalog.ErrNoDefaultCulture), ClassCatalog, "NoDefaultCulture", ""},
		{"stage", &toolchain.BuildError{Stage: toolchain.StageResource, Tool: "rc", Artifact: "a.res"}, ClassBuild, "BuildFailed", "resource"},
		{"wrapped stage", fmt.Errorf("de: %w", &toolchain.BuildError{Stage: toolchain.StageLink}), ClassBuild, "BuildFailed", "link"},
		{"unknown", errors.New("boom"), ClassInternal, "InternalError", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Classify(tc.err)
			assert.Equal(t, tc.class, f.Class)
			assert.Equal(t, tc.code, f.Code)
			assert.Equal(t, tc.stage, f.Stage)
			assert.Equal(t, tc.err.Error(), f.Message)
		})
	}
}

func TestReport_AddAndSummary(t *testing.T) {
	r := New("Ribbon.xml", "s1")
	ok := r.Add(target.Target{OutputArtifactPath: "Ribbon.dll"}, "out/Ribbon.dll", []byte("abc"), nil)
	bad := r.Add(target.Target{LocaleName: "de", IsLocalized: true}, "out/Ribbon.de.dll", nil,
		&toolchain.BuildError{Stage: toolchain.StageMarkup, Tool: "uicc", Artifact: "Ribbon.de.bml"})

	assert.Equal(t, StatusSucceeded, ok.Status)
	assert.Equal(t, "default", ok.Target)
	assert.Equal(t, int64(3), ok.Size)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", ok.SHA256)

	assert.Equal(t, StatusFailed, bad.Status)
	require.NotNil(t, bad.Failure)
	assert.Equal(t, "markup", bad.Failure.Stage)

	assert.Equal(t, 1, r.Succeeded())
	assert.Equal(t, 1, r.Failed())

	var buf bytes.Buffer
	require.NoError(t, r.WriteSummary(&buf))
	out := buf.String()
	assert.Contains(t, out, "TARGET")
	assert.Contains(t, out, "out/Ribbon.dll")
	assert.Contains(t, out, "check uicc output")
	assert.True(t, strings.HasSuffix(out, "1 succeeded, 1 failed\n"))
}

func TestReport_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "report.json")
	r := New("Ribbon.xml", "s1")
	r.Add(target.Target{}, "Ribbon.dll", []byte("x"), nil)
	r.Add(target.Target{LocaleName: "fr"}, "Ribbon.fr.dll", nil, errors.New("boom"))

	require.NoError(t, r.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReport_SaveRejectsInvalid(t *testing.T) {
	r := &Report{}
	err := r.Save(filepath.Join(t.TempDir(), "r.json"))
	require.Error(t, err)

	r = New("t.xml", "")
	r.Entries = append(r.Entries, Entry{Target: "de", Status: StatusFailed})
	require.Error(t, r.Save(filepath.Join(t.TempDir(), "r.json")))
}

func TestLoad_RejectsTrailingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"template":"t","targets":[]} {}`), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestWriteFile_ReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Ribbon.dll")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFile(path, []byte("new"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}
