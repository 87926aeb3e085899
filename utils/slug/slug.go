package slug

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// maxLength bounds generated slugs so derived filenames and ids stay short.
const maxLength = 60

// Make converts an arbitrary title into a lowercase ASCII slug suitable for
// catalog ids and poster filenames. Non-ASCII text is transliterated first so
// titles in any script produce usable slugs.
func Make(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.ToLower(s)

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if isAlnum {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := b.String()
	if len(out) > maxLength {
		out = strings.TrimRight(out[:maxLength], "-")
	}
	if out == "" {
		out = "untitled"
	}
	return out
}
