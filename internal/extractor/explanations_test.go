package extractor

import (
	"testing"

	"decaprep/internal/models"

	"github.com/stretchr/testify/require"
)

func TestExtractExplanations(t *testing.T) {
	text := "Review: 3 C - Customers value speed\nExplanations\n1. Because supply rises.\n2. Price elasticity matters."

	got := ExtractExplanations(text, "m.pdf")
	require.Equal(t, []models.ExplanationRecord{
		{QuestionNumber: 1, Explanation: "Because supply rises.", Source: "m.pdf", Type: models.ExplanationDetailed},
		{QuestionNumber: 2, Explanation: "Price elasticity matters.", Source: "m.pdf", Type: models.ExplanationDetailed},
		{QuestionNumber: 3, Explanation: "Customers value speed", Source: "m.pdf", Type: models.ExplanationInline, Answer: "C"},
	}, got)
}

func TestExtractExplanationsNoDedup(t *testing.T) {
	text := "Rationales\n4. Long form reason.\n4 B - short reason"
	got := ExtractExplanations(text, "f.pdf")

	var ordinals []int
	for _, e := range got {
		ordinals = append(ordinals, e.QuestionNumber)
	}
	require.Equal(t, []int{4, 4}, ordinals)
	require.Equal(t, models.ExplanationDetailed, got[0].Type)
	require.Equal(t, models.ExplanationInline, got[1].Type)
}

func TestExtractExplanationsNone(t *testing.T) {
	require.Empty(t, ExtractExplanations("1. Stem A. a B. b C. c D. d", "x.pdf"))
}

func TestExtractExplanationsIgnoresHeaderWordsInStems(t *testing.T) {
	text := "1. Which business solutions reduce cost? A. a B. b C. c D. d\n" +
		"2. Which tool answers the customer? A. w B. x C. y D. z\n" +
		"3. What is pricing? A. p B. q C. r D. s\nAnswer Key: 1A 2B 3C"
	require.Empty(t, ExtractExplanations(text, "m.pdf"))
}

func TestExtractExplanationsWrappedStemLine(t *testing.T) {
	text := "1. Which of these\nsolutions reduce cost? A. a B. b C. c D. d\n2. Next? A. w B. x C. y D. z"
	require.Empty(t, ExtractExplanations(text, "m.pdf"))
}

func TestExtractExplanationsUsesLastHeaderWithEntries(t *testing.T) {
	text := "1. Stem? A. a B. b C. c D. d\nAnswer Key: 1A\nSolutions:\n1. A is right because of scale.\nAnswers\n"

	got := ExtractExplanations(text, "f.pdf")
	require.Equal(t, []models.ExplanationRecord{
		{QuestionNumber: 1, Explanation: "A is right because of scale.", Source: "f.pdf", Type: models.ExplanationDetailed},
	}, got)
}
