// Package textnorm holds the small text predicates shared by the extractors.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Fold maps full-width ASCII variants to their narrow forms, so "１２" and
// "12" compare equal.
func Fold(s string) string {
	return width.Fold.String(s)
}

// IsDigits reports whether s is non-empty and every rune is a decimal digit,
// counting full-width digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range Fold(s) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// HasAnyRune reports whether s contains any rune of set.
func HasAnyRune(s, set string) bool {
	return strings.ContainsAny(s, set)
}

// ContainsAny reports whether s contains any of the given substrings. Empty
// substrings are ignored.
func ContainsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CollapseSpace trims s and replaces every run of whitespace with a single
// space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Set is a membership set of terms.
type Set map[string]struct{}

// NewSet builds a Set from terms.
func NewSet(terms ...string) Set {
	set := make(Set, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return set
}

// Has reports whether term is in the set.
func (s Set) Has(term string) bool {
	_, ok := s[term]
	return ok
}
