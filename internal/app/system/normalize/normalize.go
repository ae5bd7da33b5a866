// Package normalize holds the field normalizers applied before anything is
// stored or matched. Keeping them in one place means an email typed with
// stray spaces or capitals compares equal everywhere (invite lookups,
// profile fixtures, index keys).
package normalize

import "strings"

// Email lowercases and trims an email address. Matching on email is always
// case-insensitive; stores persist and query the normalized form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
