package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"decaprep/internal/models"
)

var (
	numeralMarker = regexp.MustCompile(`\d+\.\s`)
	questionHead  = regexp.MustCompile(`(?s)^(\d+)\.\s+(.+?)\s*A\.`)
	looseItem     = regexp.MustCompile(`\d+\.\s+[^\n]{0,60}`)
)

// Segment splits normalized text into question blocks. Every "<digits>. "
// token starts a new fragment; only fragments shaped like a question stem
// followed by an "A." option survive. Blocks come back in source order and
// ordinals are kept as printed, duplicates included.
func Segment(text string) []models.QuestionBlock {
	var blocks []models.QuestionBlock
	for _, frag := range splitAtNumerals(text) {
		m := questionHead.FindStringSubmatch(frag)
		if m == nil {
			continue
		}
		ordinal, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		stem := strings.TrimSpace(m[2])
		if stem == "" {
			continue
		}
		blocks = append(blocks, models.QuestionBlock{Ordinal: ordinal, Text: stem})
	}
	return blocks
}

func splitAtNumerals(text string) []string {
	locs := numeralMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	frags := make([]string, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			frags = append(frags, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	return append(frags, text[prev:])
}

// LooseNumberedItems returns up to limit short "<n>. ..." snippets. It is a
// diagnostic for documents that yielded no question blocks.
func LooseNumberedItems(text string, limit int) []string {
	found := looseItem.FindAllString(text, limit)
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, strings.TrimSpace(f))
	}
	return out
}
