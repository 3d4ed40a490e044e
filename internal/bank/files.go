// Package bank owns the two JSON files the practice app reads: the question
// bank and the explanation set.
package bank

import (
	"fmt"
	"path/filepath"
	"time"

	"decaprep/internal/models"
	"decaprep/internal/util"
)

const (
	QuestionsFileName    = "questions.json"
	ExplanationsFileName = "explanations.json"
)

type FileSummary struct {
	FileName         string    `json:"fileName"`
	QuestionCount    int       `json:"questionCount"`
	ExplanationCount int       `json:"explanationCount"`
	ProcessedAt      time.Time `json:"processedAt"`
	Status           string    `json:"status,omitempty"`
	Error            string    `json:"error,omitempty"`
}

type QuestionsMetadata struct {
	TotalQuestions int           `json:"totalQuestions"`
	TotalFiles     int           `json:"totalFiles"`
	ProcessedAt    time.Time     `json:"processedAt"`
	Files          []FileSummary `json:"files"`
}

type ExplanationsMetadata struct {
	TotalExplanations int           `json:"totalExplanations"`
	TotalFiles        int           `json:"totalFiles"`
	ProcessedAt       time.Time     `json:"processedAt"`
	Files             []FileSummary `json:"files"`
}

type QuestionsFile struct {
	Metadata  QuestionsMetadata       `json:"metadata"`
	Questions []models.QuestionRecord `json:"questions"`
}

type ExplanationsFile struct {
	Metadata     ExplanationsMetadata       `json:"metadata"`
	Explanations []models.ExplanationRecord `json:"explanations"`
}

func QuestionsPath(dir string) string    { return filepath.Join(dir, QuestionsFileName) }
func ExplanationsPath(dir string) string { return filepath.Join(dir, ExplanationsFileName) }

// WriteFiles writes both output files into dir. Each file is replaced
// atomically; nothing is written until the caller has merged every document.
func WriteFiles(dir string, q QuestionsFile, e ExplanationsFile) error {
	if q.Questions == nil {
		q.Questions = []models.QuestionRecord{}
	}
	if e.Explanations == nil {
		e.Explanations = []models.ExplanationRecord{}
	}
	if err := util.WriteJSONAtomic(QuestionsPath(dir), q); err != nil {
		return fmt.Errorf("write questions file: %w", err)
	}
	if err := util.WriteJSONAtomic(ExplanationsPath(dir), e); err != nil {
		return fmt.Errorf("write explanations file: %w", err)
	}
	return nil
}

func LoadQuestions(path string) (QuestionsFile, error) {
	var f QuestionsFile
	if err := util.ReadJSON(path, &f); err != nil {
		return QuestionsFile{}, fmt.Errorf("load questions: %w", err)
	}
	return f, nil
}

func LoadExplanations(path string) (ExplanationsFile, error) {
	var f ExplanationsFile
	if err := util.ReadJSON(path, &f); err != nil {
		return ExplanationsFile{}, fmt.Errorf("load explanations: %w", err)
	}
	return f, nil
}
