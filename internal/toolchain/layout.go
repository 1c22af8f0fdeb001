package toolchain

import (
	"path/filepath"
	"strings"
)

// Layout fixes the extensions of every file a build derives from the
// rendered template, and the tool names invoked for each stage.
type Layout struct {
	ScriptExt         string
	MarkupExt         string
	ResourceScriptExt string
	ResourceBinaryExt string
	ModuleExt         string

	MarkupCompiler   string
	ResourceCompiler string
	Linker           string
}

// DefaultLayout matches the native ribbon toolchain.
func DefaultLayout() Layout {
	return Layout{
		ScriptExt:         ".sh",
		MarkupExt:         ".bml",
		ResourceScriptExt: ".rc",
		ResourceBinaryExt: ".res",
		ModuleExt:         ".dll",
		MarkupCompiler:    "uicc",
		ResourceCompiler:  "rc",
		Linker:            "link",
	}
}

func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	set := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	set(&l.ScriptExt, def.ScriptExt)
	set(&l.MarkupExt, def.MarkupExt)
	set(&l.ResourceScriptExt, def.ResourceScriptExt)
	set(&l.ResourceBinaryExt, def.ResourceBinaryExt)
	set(&l.ModuleExt, def.ModuleExt)
	set(&l.MarkupCompiler, def.MarkupCompiler)
	set(&l.ResourceCompiler, def.ResourceCompiler)
	set(&l.Linker, def.Linker)
	return l
}

// Paths are the sibling files of one build.
type Paths struct {
	Template       string
	Script         string
	Markup         string
	ResourceScript string
	ResourceBinary string
	Module         string
}

// Derive computes the sibling paths of rendered by extension substitution.
func (l Layout) Derive(rendered string) Paths {
	base := strings.TrimSuffix(rendered, filepath.Ext(rendered))
	return Paths{
		Template:       rendered,
		Script:         base + l.ScriptExt,
		Markup:         base + l.MarkupExt,
		ResourceScript: base + l.ResourceScriptExt,
		ResourceBinary: base + l.ResourceBinaryExt,
		Module:         base + l.ModuleExt,
	}
}

// Generated lists every path the build creates, excluding the template.
func (p Paths) Generated() []string {
	return []string{p.Script, p.Markup, p.ResourceScript, p.ResourceBinary, p.Module}
}

// collision returns a generated path that equals another path of the build
// or one of the protected paths.
func (p Paths) collision(protected ...string) (string, bool) {
	seen := map[string]struct{}{filepath.Clean(p.Template): {}}
	for _, pp := range protected {
		if pp != "" {
			seen[filepath.Clean(pp)] = struct{}{}
		}
	}
	for _, g := range p.Generated() {
		c := filepath.Clean(g)
		if _, dup := seen[c]; dup {
			return g, true
		}
		seen[c] = struct{}{}
	}
	return "", false
}
