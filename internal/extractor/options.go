package extractor

import (
	"regexp"
	"strings"

	"decaprep/internal/models"
)

var (
	optionWindowEnd = regexp.MustCompile(`\s\d+\.\s|Answer Key|RATIONALE|Explanations`)
	optionSpans     = regexp.MustCompile(`(?s)A\.\s*(.*?)\s*B\.\s*(.*?)\s*C\.\s*(.*?)\s*D\.\s*(.*)$`)
)

// ExtractOptions finds the A-D options that follow a block's stem. All four
// letters must appear in order inside the option window, otherwise every
// option comes back empty.
func ExtractOptions(text string, block models.QuestionBlock) models.Options {
	if block.Text == "" {
		return models.Options{}
	}
	idx := strings.Index(text, block.Text)
	if idx < 0 {
		return models.Options{}
	}
	window := text[idx+len(block.Text):]
	if loc := optionWindowEnd.FindStringIndex(window); loc != nil {
		window = window[:loc[0]]
	}

	m := optionSpans.FindStringSubmatch(window)
	if m == nil {
		return models.Options{}
	}
	return models.Options{
		A: strings.TrimSpace(m[1]),
		B: strings.TrimSpace(m[2]),
		C: strings.TrimSpace(m[3]),
		D: strings.TrimSpace(m[4]),
	}
}
