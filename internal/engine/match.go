package engine

import "strings"

// SameName reports whether two entity names are equal ignoring case and
// leading/trailing whitespace. Matching is always exact, never fuzzy.
// Blank names never match anything.
func SameName(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
