package storage

import (
	"context"
	"fmt"
	"time"
)

// LLMCallRecord is one generative call made on behalf of a question.
type LLMCallRecord struct {
	CallID       string
	Operation    string
	QuestionID   string
	ProviderName string
	Model        string
	Status       string
	ErrorType    string
	Latency      time.Duration
	CreatedAt    time.Time
}

type LLMAuditRepo struct {
	db *DB
}

func NewLLMAuditRepo(db *DB) *LLMAuditRepo {
	return &LLMAuditRepo{db: db}
}

func (r *LLMAuditRepo) Insert(ctx context.Context, rec LLMCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO llm_calls (call_id, operation, question_id, provider_name, model, status, error_type, latency_ms)
VALUES ($1::uuid, $2, NULLIF($3,''), $4, NULLIF($5,''), $6, NULLIF($7,''), $8)`,
		rec.CallID, rec.Operation, rec.QuestionID, rec.ProviderName, rec.Model, rec.Status, rec.ErrorType, rec.Latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

// ListByQuestion returns the most recent calls for a question, newest first.
func (r *LLMAuditRepo) ListByQuestion(ctx context.Context, questionID string, limit int) ([]LLMCallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT call_id::text, operation, COALESCE(question_id,''), provider_name, COALESCE(model,''), status, COALESCE(error_type,''), latency_ms, created_at
FROM llm_calls
WHERE question_id = $1
ORDER BY created_at DESC
LIMIT $2`, questionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list llm calls: %w", err)
	}
	defer rows.Close()
	out := []LLMCallRecord{}
	for rows.Next() {
		var rec LLMCallRecord
		var latencyMS int64
		if err := rows.Scan(&rec.CallID, &rec.Operation, &rec.QuestionID, &rec.ProviderName, &rec.Model, &rec.Status, &rec.ErrorType, &latencyMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan llm call: %w", err)
		}
		rec.Latency = time.Duration(latencyMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
