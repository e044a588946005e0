package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFallback is returned when nothing usable survives sanitization.
const DefaultFallback = "item"

// trimSet is stripped from both ends of every sanitized name.
const trimSet = "-._ "

// Style configures Sanitize.
type Style struct {
	Separator rune   // Replacement for disallowed runes; runs of it collapse to one.
	KeepSpace bool   // Allow ' ' inside names.
	Fallback  string // Returned for empty results. Defaults to DefaultFallback.
}

var (
	// GenerateStyle replaces disallowed runes with '-'.
	GenerateStyle = Style{Separator: '-', Fallback: DefaultFallback}
	// OrganizeStyle replaces disallowed runes with '_' and keeps spaces.
	OrganizeStyle = Style{Separator: '_', KeepSpace: true, Fallback: DefaultFallback}
)

// foldDiacritics decomposes and drops combining marks: "Café" -> "Cafe".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize maps raw to a non-empty name drawn from [A-Za-z0-9._-] (plus
// space under KeepSpace). It is case-preserving and idempotent.
func (s Style) Sanitize(raw string) string {
	folded, _, err := transform.String(foldDiacritics, raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSep := false
	for _, r := range folded {
		if !s.allowed(r) {
			r = s.Separator
		}
		if r == s.Separator {
			if lastSep {
				continue
			}
			lastSep = true
		} else {
			lastSep = false
		}
		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), trimSet)
	if out == "" {
		return s.fallback()
	}
	return out
}

func (s Style) allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	case r == ' ':
		return s.KeepSpace
	}
	return false
}

func (s Style) fallback() string {
	if s.Fallback == "" {
		return DefaultFallback
	}
	return s.Fallback
}
