package storage

import (
	"context"
	"fmt"

	"decaprep/internal/models"

	"github.com/jackc/pgx/v5"
)

type ExplanationRepo struct {
	db *DB
}

func NewExplanationRepo(db *DB) *ExplanationRepo {
	return &ExplanationRepo{db: db}
}

// ReplaceExplanations swaps every explanation of source for records in one
// transaction. Explanations have no natural key, so replace is the only
// idempotent write.
func (r *ExplanationRepo) ReplaceExplanations(ctx context.Context, source string, records []models.ExplanationRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace explanations: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM explanations WHERE source=$1`, source); err != nil {
		return fmt.Errorf("delete explanations: %w", err)
	}
	if len(records) > 0 {
		rows := make([][]any, 0, len(records))
		for _, e := range records {
			var answer any
			if e.Answer != "" {
				answer = e.Answer
			}
			rows = append(rows, []any{source, e.QuestionNumber, e.Explanation, e.Type, answer})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"explanations"},
			[]string{"source", "question_number", "explanation", "type", "answer"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy explanations: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit explanations: %w", err)
	}
	return nil
}

func (r *ExplanationRepo) ListExplanations(ctx context.Context, source string, questionNumber int) ([]models.ExplanationRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT source, question_number, explanation, type, COALESCE(answer,'')
FROM explanations
WHERE source=$1 AND question_number=$2
ORDER BY id`, source, questionNumber)
	if err != nil {
		return nil, fmt.Errorf("list explanations: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExplanationRecord, 0)
	for rows.Next() {
		var e models.ExplanationRecord
		if err := rows.Scan(&e.Source, &e.QuestionNumber, &e.Explanation, &e.Type, &e.Answer); err != nil {
			return nil, fmt.Errorf("scan explanation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
