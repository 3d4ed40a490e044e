package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"decaprep/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DECA_TEST_POSTGRES_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("DECA_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("DECA_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func TestSchemaIsEmbedded(t *testing.T) {
	for _, table := range []string{"documents", "questions", "explanations", "llm_calls"} {
		require.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestRepositoriesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := "it-" + uuid.NewString() + ".pdf"
	docID := uuid.NewString()

	docs := NewDocumentRepo(db)
	require.NoError(t, docs.UpsertDocument(ctx, models.Document{
		DocID: docID, Filename: source, Cluster: models.ClusterFinance, Status: models.DocumentPending,
	}))
	require.NoError(t, docs.UpdateDocumentStatus(ctx, docID, models.DocumentFailed, "boom"))
	d, err := docs.GetDocument(ctx, docID)
	require.NoError(t, err)
	require.Equal(t, models.DocumentFailed, d.Status)
	require.Equal(t, "boom", d.FailReason)

	_, err = docs.GetDocument(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)

	q := models.QuestionRecord{
		ID: "finance-it-1", Cluster: models.ClusterFinance, Source: source, QuestionNumber: 1,
		QuestionText: "What is a budget?", Options: models.Options{A: "a", B: "b", C: "c", D: "d"},
		CorrectAnswer: "C", PerformanceIndicators: []string{"Money Management"}, DifficultyLevel: "medium",
	}
	questions := NewQuestionRepo(db)
	require.NoError(t, questions.UpsertQuestions(ctx, docID, []models.QuestionRecord{q}))
	q.CorrectAnswer = "D"
	require.NoError(t, questions.UpsertQuestions(ctx, docID, []models.QuestionRecord{q}))
	got, err := questions.ListQuestionsBySource(ctx, source)
	require.NoError(t, err)
	require.Equal(t, []models.QuestionRecord{q}, got)

	explanations := NewExplanationRepo(db)
	first := []models.ExplanationRecord{
		{QuestionNumber: 1, Explanation: "old", Source: source, Type: models.ExplanationDetailed},
	}
	require.NoError(t, explanations.ReplaceExplanations(ctx, source, first))
	second := []models.ExplanationRecord{
		{QuestionNumber: 1, Explanation: "new", Source: source, Type: models.ExplanationInline, Answer: "D"},
	}
	require.NoError(t, explanations.ReplaceExplanations(ctx, source, second))
	ex, err := explanations.ListExplanations(ctx, source, 1)
	require.NoError(t, err)
	require.Equal(t, second, ex)

	audit := NewLLMAuditRepo(db)
	questionID := "finance-it-" + uuid.NewString()
	require.NoError(t, audit.Insert(ctx, LLMCallRecord{
		CallID: uuid.NewString(), Operation: "tutor", QuestionID: questionID, ProviderName: "mock", Status: "ok", Latency: 1500 * time.Millisecond,
	}))
	calls, err := audit.ListByQuestion(ctx, questionID, 5)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.Equal(t, "mock", calls[0].ProviderName)
	require.Equal(t, 1500*time.Millisecond, calls[0].Latency)
	require.Empty(t, calls[0].Model)
}
