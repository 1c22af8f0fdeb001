package toolchain

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed build.sh.tmpl
var embeddedScript string

// Placeholders understood by the script template. ToolDir is resolved once,
// when the template is persisted; the rest are filled for every build.
const (
	PlaceholderToolDir            = "{ToolDir}"
	PlaceholderMarkupCompiler     = "{MarkupCompiler}"
	PlaceholderResourceCompiler   = "{ResourceCompiler}"
	PlaceholderLinker             = "{Linker}"
	PlaceholderTemplatePath       = "{TemplatePath}"
	PlaceholderMarkupPath         = "{MarkupPath}"
	PlaceholderResourceScriptPath = "{ResourceScriptPath}"
	PlaceholderResourceBinaryPath = "{ResourceBinaryPath}"
	PlaceholderModulePath         = "{ModulePath}"
)

// EmbeddedScriptTemplate returns the built-in template before any
// substitution.
func EmbeddedScriptTemplate() string {
	return embeddedScript
}

// ensureScriptTemplate returns the persisted template at path, creating it
// from the embedded template when absent.
func ensureScriptTemplate(path string, toolDir func() string) (text string, created bool, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("reading script template %s: %w", path, err)
	}

	dir := ""
	if toolDir != nil {
		dir = toolDir()
	}
	text = strings.ReplaceAll(embeddedScript, PlaceholderToolDir, quoteValue(dir))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("creating script template dir: %w", err)
	}
	if err := writeFileAtomic(path, []byte(text), 0o644); err != nil {
		return "", false, fmt.Errorf("persisting script template %s: %w", path, err)
	}
	return text, true, nil
}

// instantiate fills the per-build placeholders of tmpl.
func instantiate(tmpl string, p Paths, l Layout) string {
	r := strings.NewReplacer(
		PlaceholderMarkupCompiler, quoteValue(l.MarkupCompiler),
		PlaceholderResourceCompiler, quoteValue(l.ResourceCompiler),
		PlaceholderLinker, quoteValue(l.Linker),
		PlaceholderTemplatePath, quoteValue(p.Template),
		PlaceholderMarkupPath, quoteValue(p.Markup),
		PlaceholderResourceScriptPath, quoteValue(p.ResourceScript),
		PlaceholderResourceBinaryPath, quoteValue(p.ResourceBinary),
		PlaceholderModulePath, quoteValue(p.Module),
	)
	return r.Replace(tmpl)
}

var dq = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

// quoteValue escapes s for use between double quotes in a POSIX shell.
func quoteValue(s string) string {
	return dq.Replace(s)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
