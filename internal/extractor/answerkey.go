package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AnswerKeyMap maps a printed question ordinal to its answer letter.
type AnswerKeyMap map[int]string

// KeyPrecedence decides which answer-key strategy wins when two of them
// disagree about the same ordinal.
type KeyPrecedence string

const (
	// PrecedenceSequential runs the labeled strategies first and the generic
	// scan last, so the generic scan overwrites them.
	PrecedenceSequential KeyPrecedence = "sequential"
	// PrecedenceLabeled runs the generic scan first so labeled blocks win.
	PrecedenceLabeled KeyPrecedence = "labeled"
)

func ParseKeyPrecedence(s string) (KeyPrecedence, error) {
	switch KeyPrecedence(strings.ToLower(strings.TrimSpace(s))) {
	case "", PrecedenceSequential:
		return PrecedenceSequential, nil
	case PrecedenceLabeled:
		return PrecedenceLabeled, nil
	default:
		return "", fmt.Errorf("unknown answer key precedence %q", s)
	}
}

var (
	keyBlock    = regexp.MustCompile(`(?i:answer\s*key|answers)\s*:?\s*((?:\d+\s*[A-D]\b[\s,;]*)+)`)
	answerBlock = regexp.MustCompile(`(?i:answers?):\s*((?:\d+\s*[-.):]?\s*[A-D]\b[\s,;]*)+)`)
	answerPair  = regexp.MustCompile(`\b(\d+)\s*[-.):]?\s*([A-D])\b`)
)

type keyStrategy func(text string, key AnswerKeyMap)

func labeledKeyBlock(text string, key AnswerKeyMap) { collectBlocks(keyBlock, text, key) }

func labeledAnswerBlock(text string, key AnswerKeyMap) { collectBlocks(answerBlock, text, key) }

func genericPairs(text string, key AnswerKeyMap) { collectPairs(text, key) }

func collectBlocks(re *regexp.Regexp, text string, key AnswerKeyMap) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		collectPairs(m[1], key)
	}
}

func collectPairs(s string, key AnswerKeyMap) {
	for _, m := range answerPair.FindAllStringSubmatch(s, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		key[n] = m[2]
	}
}

// ParseAnswerKey applies every answer-key strategy to the full document text
// and merges their (ordinal, letter) pairs into one map. Later strategies
// overwrite earlier ones; p fixes the order.
func ParseAnswerKey(text string, p KeyPrecedence) AnswerKeyMap {
	strategies := []keyStrategy{labeledKeyBlock, labeledAnswerBlock, genericPairs}
	if p == PrecedenceLabeled {
		strategies = []keyStrategy{genericPairs, labeledKeyBlock, labeledAnswerBlock}
	}
	key := AnswerKeyMap{}
	for _, apply := range strategies {
		apply(text, key)
	}
	return key
}
