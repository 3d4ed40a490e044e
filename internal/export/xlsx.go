// Package export renders the question bank as a spreadsheet for editors who
// review extractions outside the app.
package export

import (
	"fmt"
	"io"
	"strings"

	"decaprep/internal/models"
	"decaprep/internal/util"

	"github.com/xuri/excelize/v2"
)

const (
	QuestionsSheet    = "Questions"
	ExplanationsSheet = "Explanations"
)

var (
	questionHeader    = []any{"ID", "Cluster", "Source", "Number", "Question", "A", "B", "C", "D", "Answer", "Performance Indicators", "Difficulty"}
	explanationHeader = []any{"Source", "Number", "Type", "Answer", "Explanation"}
)

// WriteXLSX writes questions and explanations to path, replacing any
// existing file atomically.
func WriteXLSX(path string, questions []models.QuestionRecord, explanations []models.ExplanationRecord) error {
	f, err := build(questions, explanations)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := util.WriteStreamAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("write xlsx %s: %w", path, err)
	}
	return nil
}

func build(questions []models.QuestionRecord, explanations []models.ExplanationRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", QuestionsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ExplanationsSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	qRows := make([][]any, 0, len(questions))
	for _, q := range questions {
		qRows = append(qRows, []any{
			q.ID, string(q.Cluster), q.Source, q.QuestionNumber, q.QuestionText,
			q.Options.A, q.Options.B, q.Options.C, q.Options.D,
			q.CorrectAnswer, strings.Join(q.PerformanceIndicators, "; "), q.DifficultyLevel,
		})
	}
	if err := writeSheet(f, QuestionsSheet, questionHeader, qRows, bold); err != nil {
		return nil, err
	}

	eRows := make([][]any, 0, len(explanations))
	for _, e := range explanations {
		eRows = append(eRows, []any{e.Source, e.QuestionNumber, e.Type, e.Answer, e.Explanation})
	}
	if err := writeSheet(f, ExplanationsSheet, explanationHeader, eRows, bold); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
