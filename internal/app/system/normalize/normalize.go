// Package normalize provides canonical forms for user-entered values so
// lookups and comparisons behave consistently.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Level lowercases and trims an experience level (beginner,
// intermediate, advanced).
func Level(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
