// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, collapses every run of characters outside [a-z0-9] into a
// single hyphen and trims leading and trailing hyphens.
func Make(s string) string {
	s = nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether s is already in canonical slug form.
func IsValid(s string) bool {
	return s != "" && Make(s) == s
}
