package storage

import (
	"context"
	"fmt"

	"decaprep/internal/models"

	"github.com/jackc/pgx/v5"
)

type QuestionRepo struct {
	db *DB
}

func NewQuestionRepo(db *DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// UpsertQuestions writes records keyed by their deterministic id, so
// re-extracting a file updates rows in place.
func (r *QuestionRepo) UpsertQuestions(ctx context.Context, docID string, records []models.QuestionRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range records {
		batch.Queue(`
INSERT INTO questions (id, doc_id, cluster, source, question_number, question_text, options, correct_answer, performance_indicators, difficulty_level)
VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id)
DO UPDATE SET
  doc_id = EXCLUDED.doc_id,
  cluster = EXCLUDED.cluster,
  source = EXCLUDED.source,
  question_number = EXCLUDED.question_number,
  question_text = EXCLUDED.question_text,
  options = EXCLUDED.options,
  correct_answer = EXCLUDED.correct_answer,
  performance_indicators = EXCLUDED.performance_indicators,
  difficulty_level = EXCLUDED.difficulty_level,
  updated_at = NOW()`,
			q.ID, docID, string(q.Cluster), q.Source, q.QuestionNumber, q.QuestionText, q.Options, q.CorrectAnswer, q.PerformanceIndicators, q.DifficultyLevel,
		)
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert questions: %w", err)
	}
	return nil
}

func (r *QuestionRepo) ListQuestionsBySource(ctx context.Context, source string) ([]models.QuestionRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, cluster, source, question_number, question_text, options, correct_answer, performance_indicators, difficulty_level
FROM questions
WHERE source=$1
ORDER BY question_number, id`, source)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]models.QuestionRecord, 0)
	for rows.Next() {
		var q models.QuestionRecord
		var cluster string
		if err := rows.Scan(&q.ID, &cluster, &q.Source, &q.QuestionNumber, &q.QuestionText, &q.Options, &q.CorrectAnswer, &q.PerformanceIndicators, &q.DifficultyLevel); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Cluster = models.Cluster(cluster)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
