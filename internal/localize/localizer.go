// Package localize substitutes resource tokens in a template document.
package localize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"locbuild/internal/target"
)

const (
	TokenBegin = "{Resource:"
	TokenEnd   = "}"
)

// Resolver answers point lookups for the culture already selected.
type Resolver interface {
	GetString(key string) (string, bool)
}

// Result is a rendered template.
type Result struct {
	Text string

	// Unresolved lists distinct keys left as literal tokens, in first-seen
	// order.
	Unresolved []string
}

// Localize renders text for t. Non-localized targets get the text back
// unchanged. Otherwise every {Resource:key} token that r resolves is replaced,
// all occurrences at once; unresolved and unterminated tokens stay verbatim.
func Localize(text string, t target.Target, r Resolver) Result {
	if !t.IsLocalized || r == nil {
		return Result{Text: text}
	}

	var unresolved []string
	seen := make(map[string]struct{})

	pos := 0
	for pos < len(text) {
		b := strings.Index(text[pos:], TokenBegin)
		if b < 0 {
			break
		}
		b += pos
		e := strings.Index(text[b+len(TokenBegin):], TokenEnd)
		if e < 0 {
			break
		}
		e += b + len(TokenBegin)

		token := text[b : e+len(TokenEnd)]
		key := text[b+len(TokenBegin) : e]

		value, ok := r.GetString(key)
		if !ok {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				unresolved = append(unresolved, key)
			}
			pos = e + len(TokenEnd)
			continue
		}

		// Earlier copies of token shift b as well.
		n := strings.Count(text[:b], token)
		text = strings.ReplaceAll(text, token, value)
		pos = b + n*(len(value)-len(token)) + len(value)
	}

	return Result{Text: text, Unresolved: unresolved}
}

// RenderedSegment marks rendered copies, so files derived from them never
// share a name with a delivered artifact.
const RenderedSegment = "build"

// RenderedPath names the per-target rendered copy of templatePath: the
// locale (or "default") and RenderedSegment are inserted before the
// extension. When dir is non-empty the file is placed there instead of
// beside the template.
func RenderedPath(templatePath string, t target.Target, dir string) string {
	ext := filepath.Ext(templatePath)
	base := strings.TrimSuffix(templatePath, ext)
	name := filepath.Base(base) + "." + t.DisplayName() + "." + RenderedSegment + ext
	if dir == "" {
		dir = filepath.Dir(base)
	}
	return filepath.Join(dir, name)
}

// Registrar records files that belong to the build in progress.
type Registrar interface {
	Register(paths ...string)
}

// WriteRendered persists res for t and registers the file with reg before
// writing, so a partially written file is still cleaned up.
func WriteRendered(templatePath string, t target.Target, dir string, res Result, reg Registrar) (string, error) {
	path := RenderedPath(templatePath, t, dir)
	if reg != nil {
		reg.Register(path)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating intermediate dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(res.Text), 0o644); err != nil {
		return "", fmt.Errorf("writing rendered template: %w", err)
	}
	return path, nil
}
