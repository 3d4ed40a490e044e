package util

import "strings"

// SanitizeText removes NUL bytes, U+FFFD replacement runes and other
// non-printing controls that PDF text extractors leave behind. Newlines, tabs
// and carriage returns survive so later normalization can see line structure.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\x00", "")

	r := make([]rune, 0, len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			r = append(r, ch)
			continue
		}
		if ch < 0x20 || ch == 0xFFFD {
			continue
		}
		r = append(r, ch)
	}
	return strings.TrimSpace(string(r))
}
