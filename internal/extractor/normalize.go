package extractor

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(` {2,}`)

// Normalize unifies line endings, rejoins words hyphenated across a line wrap
// and collapses runs of spaces. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = joinWrappedWords(s)
	return multiSpace.ReplaceAllString(s, " ")
}

// joinWrappedWords drops every "-\n" that sits between two word characters.
// The scan looks at the output built so far, so chains like "a-\nb-\nc"
// collapse in a single pass.
func joinWrappedWords(s string) string {
	if !strings.Contains(s, "-\n") {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' && i+2 < len(s) && s[i+1] == '\n' && isWordByte(s[i+2]) &&
			len(out) > 0 && isWordByte(out[len(out)-1]) {
			i++
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
