package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"locbuild/internal/catalog"
)

var ErrDiscoveryFailed = errors.New("discovery failed")

// DiscoveryError wraps any filesystem failure met while enumerating targets.
type DiscoveryError struct {
	Path  string
	Cause error
}

func (e *DiscoveryError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %v", ErrDiscoveryFailed, e.Path, e.Cause)
}

func (e *DiscoveryError) Unwrap() []error { return []error{ErrDiscoveryFailed, e.Cause} }

// Result is the outcome of one discovery pass.
type Result struct {
	// Targets holds the neutral target first, then locale targets sorted by
	// locale name.
	Targets []Target

	// Strings is the culture-aware catalog front-end over every target. It is
	// nil when no target is localized.
	Strings *catalog.Service
}

// Discover enumerates the targets for templatePath. artifactExt is appended
// to each output artifact path (".dll" gives foo.de.dll).
//
// Any filesystem error aborts discovery; a partial target list is never
// returned.
func Discover(templatePath, artifactExt string) (*Result, error) {
	if strings.TrimSpace(templatePath) == "" {
		return nil, &DiscoveryError{Path: templatePath, Cause: errors.New("template path is empty")}
	}

	base := strings.TrimSuffix(templatePath, filepath.Ext(templatePath))
	dir := filepath.Dir(base)
	baseName := filepath.Base(base)

	neutralCatalog := base + CatalogExtension
	exists, err := fileExists(neutralCatalog)
	if err != nil {
		return nil, &DiscoveryError{Path: neutralCatalog, Cause: err}
	}
	neutral := Target{OutputArtifactPath: base + artifactExt}
	if exists {
		neutral.IsLocalized = true
		neutral.ResourceCatalogPath = neutralCatalog
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DiscoveryError{Path: dir, Cause: err}
	}

	prefix := baseName + "."
	var locales []Target
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, CatalogExtension) {
			continue
		}
		if len(name) <= len(prefix)+len(CatalogExtension) {
			continue // the neutral catalog itself
		}
		locale := name[len(prefix) : len(name)-len(CatalogExtension)]
		if !validLocaleToken(locale) {
			continue
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return nil, &DiscoveryError{Path: path, Cause: err}
		}
		locales = append(locales, Target{
			LocaleName:          locale,
			IsLocalized:         true,
			ResourceCatalogPath: path,
			OutputArtifactPath:  base + "." + locale + artifactExt,
		})
	}

	sort.Slice(locales, func(i, j int) bool { return locales[i].LocaleName < locales[j].LocaleName })

	res := &Result{Targets: append([]Target{neutral}, locales...)}
	if anyLocalized(res.Targets) {
		sources := make([]catalog.Source, 0, len(res.Targets))
		for _, t := range res.Targets {
			sources = append(sources, catalog.Source{Locale: t.LocaleName, Path: t.ResourceCatalogPath})
		}
		res.Strings = catalog.NewService(sources)
	}
	return res, nil
}

// Find returns the target whose locale matches locale.
func Find(targets []Target, locale string) (Target, bool) {
	for _, t := range targets {
		if catalog.SameCulture(t.LocaleName, locale) {
			return t, true
		}
	}
	return Target{}, false
}

// validLocaleToken accepts a single trailing dotted segment: non-empty, no
// further dots, no whitespace or path separators, and not NeutralName.
func validLocaleToken(s string) bool {
	if s == "" || strings.ContainsAny(s, `. /\`) || strings.EqualFold(s, NeutralName) {
		return false
	}
	for _, r := range s {
		if r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func anyLocalized(targets []Target) bool {
	for _, t := range targets {
		if t.IsLocalized {
			return true
		}
	}
	return false
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
