package catalog

import (
	"fmt"
	"strings"
)

// Source is one culture taking part in resolution. Path is empty when the
// culture has no resource document.
type Source struct {
	Locale string
	Path   string
}

// Service is the culture-aware front-end over a set of catalogs. Catalogs are
// parsed on first use and memoized, keyed by locale name, until Reset.
//
// A Service is not safe for concurrent SetCulture calls.
type Service struct {
	sources []Source
	loaded  map[string]*Catalog

	current  *Source
	fallback *Source
	def      *Source
	chain    []*Catalog
}

// NewService creates a service over sources. Exactly one source should carry
// the empty (neutral) locale; SetCulture fails otherwise.
func NewService(sources []Source) *Service {
	cp := make([]Source, len(sources))
	copy(cp, sources)
	return &Service{
		sources: cp,
		loaded:  make(map[string]*Catalog),
	}
}

// SetCulture selects the resolution chain for locale: the locale itself, its
// parent culture, then the neutral culture. An empty locale selects only the
// neutral culture. Catalogs on the chain are parsed here, so a malformed
// document surfaces before any lookup.
func (s *Service) SetCulture(locale string) error {
	s.current, s.fallback, s.def, s.chain = nil, nil, nil, nil

	def := s.find("")
	if def == nil {
		return fmt.Errorf("%w: no neutral catalog source among %d sources", ErrNoDefaultCulture, len(s.sources))
	}

	var current, fallback *Source
	if strings.TrimSpace(locale) != "" {
		current = s.find(locale)
		if parent := ParentCulture(locale); parent != "" {
			fallback = s.find(parent)
		}
	}

	var chain []*Catalog
	for _, src := range []*Source{current, fallback, def} {
		if src == nil || src.Path == "" {
			continue
		}
		c, err := s.load(src)
		if err != nil {
			return err
		}
		if !containsCatalog(chain, c) {
			chain = append(chain, c)
		}
	}

	s.current, s.fallback, s.def, s.chain = current, fallback, def, chain
	return nil
}

// GetString resolves key through the active chain and returns the first hit.
// It never fails; ok is false when no catalog defines key.
func (s *Service) GetString(key string) (string, bool) {
	for _, c := range s.chain {
		if v, ok := c.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Chain returns the locale names of the active chain in lookup order. The
// neutral culture appears as "".
func (s *Service) Chain() []string {
	var out []string
	for _, src := range []*Source{s.current, s.fallback, s.def} {
		if src != nil {
			out = append(out, src.Locale)
		}
	}
	return out
}

// Loaded reports how many catalogs are currently memoized.
func (s *Service) Loaded() int { return len(s.loaded) }

// Reset discards every memoized catalog and the active chain.
func (s *Service) Reset() {
	s.loaded = make(map[string]*Catalog)
	s.current, s.fallback, s.def, s.chain = nil, nil, nil, nil
}

func (s *Service) find(locale string) *Source {
	for i := range s.sources {
		if SameCulture(s.sources[i].Locale, locale) {
			return &s.sources[i]
		}
	}
	return nil
}

func (s *Service) load(src *Source) (*Catalog, error) {
	key := cacheKey(src.Locale)
	if c, ok := s.loaded[key]; ok {
		return c, nil
	}
	c, err := LoadFile(src.Path)
	if err != nil {
		return nil, err
	}
	s.loaded[key] = c
	return c, nil
}

func cacheKey(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func containsCatalog(chain []*Catalog, c *Catalog) bool {
	for _, existing := range chain {
		if existing == c {
			return true
		}
	}
	return false
}
