package bank

import (
	"time"

	"decaprep/internal/models"
)

// DocumentResult is everything one document contributed to a batch.
type DocumentResult struct {
	FileName     string                     `json:"file_name"`
	Questions    []models.QuestionRecord    `json:"questions"`
	Explanations []models.ExplanationRecord `json:"explanations"`
	ProcessedAt  time.Time                  `json:"processed_at"`
	// Err is set when the document could not be read; it then contributes
	// nothing but its summary line.
	Err string `json:"error,omitempty"`
}

// Aggregator merges per-document results into the two output collections.
// It is not safe for concurrent use; one goroutine owns the merge.
type Aggregator struct {
	questions    []models.QuestionRecord
	explanations []models.ExplanationRecord
	files        []FileSummary
	failed       int
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		questions:    []models.QuestionRecord{},
		explanations: []models.ExplanationRecord{},
		files:        []FileSummary{},
	}
}

func (a *Aggregator) Add(r DocumentResult) {
	s := FileSummary{
		FileName:    r.FileName,
		ProcessedAt: r.ProcessedAt,
		Status:      models.DocumentProcessed,
	}
	if r.Err != "" {
		s.Status = models.DocumentFailed
		s.Error = r.Err
		a.failed++
		a.files = append(a.files, s)
		return
	}
	s.QuestionCount = len(r.Questions)
	s.ExplanationCount = len(r.Explanations)
	a.files = append(a.files, s)
	a.questions = append(a.questions, r.Questions...)
	a.explanations = append(a.explanations, r.Explanations...)
}

func (a *Aggregator) TotalQuestions() int    { return len(a.questions) }
func (a *Aggregator) TotalExplanations() int { return len(a.explanations) }
func (a *Aggregator) Failed() int            { return a.failed }

// Processed counts documents that were read successfully.
func (a *Aggregator) Processed() int { return len(a.files) - a.failed }

// Files builds both output documents stamped with now.
func (a *Aggregator) Files(now time.Time) (QuestionsFile, ExplanationsFile) {
	now = now.UTC()
	files := append([]FileSummary(nil), a.files...)
	q := QuestionsFile{
		Metadata: QuestionsMetadata{
			TotalQuestions: len(a.questions),
			TotalFiles:     a.Processed(),
			ProcessedAt:    now,
			Files:          files,
		},
		Questions: a.questions,
	}
	e := ExplanationsFile{
		Metadata: ExplanationsMetadata{
			TotalExplanations: len(a.explanations),
			TotalFiles:        a.Processed(),
			ProcessedAt:       now,
			Files:             files,
		},
		Explanations: a.explanations,
	}
	return q, e
}

// Write stamps both collections with now and writes them into dir.
func (a *Aggregator) Write(dir string, now time.Time) error {
	q, e := a.Files(now)
	return WriteFiles(dir, q, e)
}
