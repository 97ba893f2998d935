package transform

import (
	"strings"
	"unicode"
)

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest, so "NON MANAGER" and "non manager" both give
// "Non Manager".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
