package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"decaprep/internal/models"
)

var (
	// A header owns its line: alone, or followed by a colon.
	explanationHeader = regexp.MustCompile(`(?im)^[ \t]*(?:answer key|answers|explanations|solutions|rationales|justifications)[ \t]*(?::|$)`)
	explanationEntry  = regexp.MustCompile(`(\d+)\.\s+`)
	inlineExplanation = regexp.MustCompile(`\b(\d+)\s+([A-D])\s*[-–—]\s*([^\n]+)`)
)

// ExtractExplanations returns the detailed entries of the trailing answer
// section followed by every inline "<n> <letter> - <text>" explanation.
// Both passes may report the same ordinal; nothing is deduplicated.
func ExtractExplanations(text, source string) []models.ExplanationRecord {
	out := detailedExplanations(text, source)
	return append(out, inlineExplanations(text, source)...)
}

// detailedExplanations parses the section under the last header that has
// numbered entries. A section runs to the next header or the end of text.
func detailedExplanations(text, source string) []models.ExplanationRecord {
	headers := explanationHeader.FindAllStringIndex(text, -1)
	end := len(text)
	for i := len(headers) - 1; i >= 0; i-- {
		if out := sectionEntries(text[headers[i][1]:end], source); len(out) > 0 {
			return out
		}
		end = headers[i][0]
	}
	return nil
}

func sectionEntries(section, source string) []models.ExplanationRecord {
	marks := explanationEntry.FindAllStringSubmatchIndex(section, -1)

	var out []models.ExplanationRecord
	for i, m := range marks {
		end := len(section)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		body := strings.TrimSpace(section[m[1]:end])
		if body == "" {
			continue
		}
		n, err := strconv.Atoi(section[m[2]:m[3]])
		if err != nil {
			continue
		}
		out = append(out, models.ExplanationRecord{
			QuestionNumber: n,
			Explanation:    body,
			Source:         source,
			Type:           models.ExplanationDetailed,
		})
	}
	return out
}

func inlineExplanations(text, source string) []models.ExplanationRecord {
	var out []models.ExplanationRecord
	for _, m := range inlineExplanation.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		body := strings.TrimSpace(m[3])
		if body == "" {
			continue
		}
		out = append(out, models.ExplanationRecord{
			QuestionNumber: n,
			Explanation:    body,
			Source:         source,
			Type:           models.ExplanationInline,
			Answer:         m[2],
		})
	}
	return out
}
