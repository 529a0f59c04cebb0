// Package search implements the text matching used by todo search: a
// case- and diacritic-insensitive substring test over title and details
// ("café" matches "cafe", "BUY" matches "buy"). Matching happens in process
// over the already-sorted result set rather than in SQL, because SQLite's
// LOWER() only folds ASCII.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for comparison: decompose, strip combining marks,
// recompose, then apply Unicode case folding.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Matcher holds a pre-normalized query. The zero value matches everything.
type Matcher struct {
	query string
}

// NewMatcher normalizes query once for repeated Match calls.
func NewMatcher(query string) Matcher {
	return Matcher{query: Normalize(strings.TrimSpace(query))}
}

// Empty reports whether the matcher has no query and would match any record.
func (m Matcher) Empty() bool { return m.query == "" }

// Match reports whether the query occurs in title or, when present, details.
// A nil details never matches on the details clause.
func (m Matcher) Match(title string, details *string) bool {
	if m.query == "" {
		return true
	}
	if strings.Contains(Normalize(title), m.query) {
		return true
	}
	if details != nil && strings.Contains(Normalize(*details), m.query) {
		return true
	}
	return false
}
