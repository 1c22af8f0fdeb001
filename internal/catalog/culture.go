package catalog

import (
	"strings"

	"golang.org/x/text/language"
)

// ParentCulture returns the immediate linguistic parent of locale, or "" when
// it has none: "pt-BR" -> "pt", "zh-Hant-TW" -> "zh-Hant", "zh-Hant" -> "zh",
// "pt" -> "".
func ParentCulture(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ""
	}

	// Raw keeps legacy subtags ("iw", "in", "tl") as written so the parent
	// matches a sibling catalog of the same name.
	tag, err := language.Raw.Parse(locale)
	if err != nil {
		i := strings.LastIndexAny(locale, "-_")
		if i <= 0 {
			return ""
		}
		return locale[:i]
	}

	// Raw never infers subtags; Zzzz and ZZ mean "not written".
	base, script, region := tag.Raw()
	hasScript := script.String() != "Zzzz"
	switch {
	case region.String() != "ZZ":
		if hasScript {
			if t, err := language.Raw.Compose(base, script); err == nil {
				return t.String()
			}
		}
		return base.String()
	case hasScript:
		return base.String()
	default:
		return ""
	}
}

// SameCulture compares locale names case-insensitively, treating "_" and "-"
// as equivalent separators.
func SameCulture(a, b string) bool {
	norm := func(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), "_", "-") }
	return strings.EqualFold(norm(a), norm(b))
}
