package fetcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lextutor-backend/models"
)

// StripAccents removes combining diacritics, so "résiliation" becomes "resiliation".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeKeyword prepares a search keyword for the case-law engine.
func NormalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(StripAccents(keyword)), " ")
}

// DedupeEntries drops entries whose title repeats an earlier one (ignoring
// surrounding whitespace) and keeps at most limit entries in input order.
// A non-positive limit keeps everything.
func DedupeEntries(entries []models.JurisprudenceEntry, limit int) []models.JurisprudenceEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.JurisprudenceEntry, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		e.Title = title
		e.Summary = strings.TrimSpace(e.Summary)
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
