// Package htmlsanitize strips markup from user-entered text before it
// is stored or echoed back. Profile fields are plain text; anything
// that looks like HTML in them is hostile or accidental, so the strict
// policy removes it entirely rather than trying to allow a safe subset.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var strict = bluemonday.StrictPolicy()

// Text returns s with all HTML elements and attributes removed.
func Text(s string) string {
	return strict.Sanitize(s)
}
