package storage

import (
	"context"
	"errors"
	"fmt"

	"decaprep/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (doc_id, filename, cluster, status, fail_reason, question_count, explanation_count)
VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7)
ON CONFLICT (doc_id)
DO UPDATE SET
  filename = EXCLUDED.filename,
  cluster = EXCLUDED.cluster,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  question_count = EXCLUDED.question_count,
  explanation_count = EXCLUDED.explanation_count,
  updated_at = NOW()`,
		d.DocID, d.Filename, string(d.Cluster), d.Status, d.FailReason, d.QuestionCount, d.ExplanationCount,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateDocumentStatus(ctx context.Context, docID, status, failReason string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE documents SET status=$2, fail_reason=NULLIF($3,''), updated_at=NOW() WHERE doc_id=$1`, docID, status, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

const documentColumns = `doc_id, filename, cluster, status, COALESCE(fail_reason,''), question_count, explanation_count, created_at, updated_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	var cluster string
	err := row.Scan(&d.DocID, &d.Filename, &cluster, &d.Status, &d.FailReason, &d.QuestionCount, &d.ExplanationCount, &d.CreatedAt, &d.UpdatedAt)
	d.Cluster = models.Cluster(cluster)
	return d, err
}

// ListDocuments returns documents newest first, optionally filtered by status.
func (r *DocumentRepo) ListDocuments(ctx context.Context, status string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE ($1 = '' OR status = $1)
ORDER BY updated_at DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, docID string) (models.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE doc_id=$1`, docID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Document{}, fmt.Errorf("get document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return models.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}
