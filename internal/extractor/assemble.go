package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"decaprep/internal/models"
	"decaprep/internal/util"
)

// AnswerJoin selects how answer-key entries attach to surviving questions.
type AnswerJoin string

const (
	// JoinPosition gives the i-th complete question (1-based) the key entry
	// for ordinal i, whatever its printed number. When an earlier candidate
	// was dropped this shifts answers onto the wrong questions; it is kept
	// because the published question banks were graded this way.
	JoinPosition AnswerJoin = "position"
	// JoinOrdinal looks the key up by the question's printed ordinal.
	JoinOrdinal AnswerJoin = "ordinal"
)

func ParseAnswerJoin(s string) (AnswerJoin, error) {
	switch AnswerJoin(strings.ToLower(strings.TrimSpace(s))) {
	case "", JoinPosition:
		return JoinPosition, nil
	case JoinOrdinal:
		return JoinOrdinal, nil
	default:
		return "", fmt.Errorf("unknown answer join %q", s)
	}
}

const fallbackAnswer = "A"

// Tagger assigns performance indicators to a question.
type Tagger interface {
	Tag(cluster models.Cluster, questionText string) []string
}

// QuestionID is stable across runs for the same cluster, file and ordinal.
// The hash of the exact file name keeps files whose names slug alike apart.
func QuestionID(cluster models.Cluster, source string, ordinal int) string {
	name := filepath.Base(source)
	return fmt.Sprintf("%s-%s-%s-%d",
		util.Slug(string(cluster)), util.Slug(util.FileStem(name)), util.ShortHash([]byte(name), 8), ordinal)
}

// Assemble turns blocks into complete question records. Candidates missing
// a stem or any option are dropped and returned separately.
func Assemble(text, source string, cluster models.Cluster, blocks []models.QuestionBlock, tagger Tagger) (kept []models.QuestionRecord, dropped []models.QuestionBlock) {
	for _, b := range blocks {
		opts := ExtractOptions(text, b)
		if b.Text == "" || !opts.Complete() {
			dropped = append(dropped, b)
			continue
		}
		kept = append(kept, models.QuestionRecord{
			ID:                    QuestionID(cluster, source, b.Ordinal),
			Cluster:               cluster,
			Source:                source,
			QuestionNumber:        b.Ordinal,
			QuestionText:          b.Text,
			Options:               opts,
			CorrectAnswer:         fallbackAnswer,
			PerformanceIndicators: tagger.Tag(cluster, b.Text),
			DifficultyLevel:       models.DefaultDifficulty,
		})
	}
	return kept, dropped
}

// AssignAnswers fills CorrectAnswer on every record. Records without a key
// entry keep "A".
func AssignAnswers(records []models.QuestionRecord, key AnswerKeyMap, join AnswerJoin) {
	for i := range records {
		n := i + 1
		if join == JoinOrdinal {
			n = records[i].QuestionNumber
		}
		if letter, ok := key[n]; ok && letter != "" {
			records[i].CorrectAnswer = letter
		} else {
			records[i].CorrectAnswer = fallbackAnswer
		}
	}
}
