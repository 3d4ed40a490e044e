package extractor

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"hyphen wrap", "mar-\nketing", "marketing"},
		{"hyphen wrap after crlf", "mar-\r\nketing", "marketing"},
		{"chained wraps", "a-\nb-\nc", "abc"},
		{"hyphen before space kept", "well- \nknown", "well- \nknown"},
		{"real hyphen kept", "cost-benefit", "cost-benefit"},
		{"spaces collapsed", "a    b  c", "a b c"},
		{"tabs untouched", "a\t\tb", "a\t\tb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	f := func(s string) bool {
		once := Normalize(s)
		return Normalize(once) == once
	}
	require.NoError(t, quick.Check(f, &quick.Config{MaxCount: 2000}))

	pieces := []string{"a", "-", "\n", "\r", " ", "1", "_", "é"}
	g := func(picks []uint8) bool {
		var s string
		for _, p := range picks {
			s += pieces[int(p)%len(pieces)]
		}
		once := Normalize(s)
		return Normalize(once) == once
	}
	require.NoError(t, quick.Check(g, &quick.Config{MaxCount: 2000}))
}
