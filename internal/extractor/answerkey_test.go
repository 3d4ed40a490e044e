package extractor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAnswerKeyLabeledBlock(t *testing.T) {
	key := ParseAnswerKey("... D. z Answer Key: 1A 2B", PrecedenceSequential)
	require.Equal(t, AnswerKeyMap{1: "A", 2: "B"}, key)
}

func TestParseAnswerKeyAnswersColon(t *testing.T) {
	key := ParseAnswerKey("Answers: 1. C, 2) D; 3-A", PrecedenceSequential)
	require.Equal(t, AnswerKeyMap{1: "C", 2: "D", 3: "A"}, key)
}

func TestParseAnswerKeyEmpty(t *testing.T) {
	require.Empty(t, ParseAnswerKey("no key in this document", PrecedenceSequential))
	require.Empty(t, ParseAnswerKey("", PrecedenceLabeled))
}

func TestParseAnswerKeyPrecedence(t *testing.T) {
	text := "Answer Key: 1C\nSee section 1 B for details."

	// The generic scan runs last and its stray match wins.
	require.Equal(t, "B", ParseAnswerKey(text, PrecedenceSequential)[1])
	require.Equal(t, "C", ParseAnswerKey(text, PrecedenceLabeled)[1])
}

func TestParseKeyPrecedence(t *testing.T) {
	p, err := ParseKeyPrecedence("")
	require.NoError(t, err)
	require.Equal(t, PrecedenceSequential, p)

	p, err = ParseKeyPrecedence(" Labeled ")
	require.NoError(t, err)
	require.Equal(t, PrecedenceLabeled, p)

	_, err = ParseKeyPrecedence("random")
	require.Error(t, err)
}
