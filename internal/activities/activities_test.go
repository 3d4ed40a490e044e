package activities

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"decaprep/internal/bank"
	"decaprep/internal/config"
	"decaprep/internal/extractor"
	"decaprep/internal/logging"
	"decaprep/internal/models"
	"decaprep/internal/pdftext"
	"decaprep/internal/pipeline"
	"decaprep/internal/taxonomy"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

type fakeStore struct {
	documents    map[string]models.Document
	statuses     map[string]string
	questions    map[string][]models.QuestionRecord
	explanations map[string][]models.ExplanationRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents:    map[string]models.Document{},
		statuses:     map[string]string{},
		questions:    map[string][]models.QuestionRecord{},
		explanations: map[string][]models.ExplanationRecord{},
	}
}

func (f *fakeStore) UpsertDocument(_ context.Context, d models.Document) error {
	f.documents[d.DocID] = d
	return nil
}

func (f *fakeStore) UpdateDocumentStatus(_ context.Context, docID, status, _ string) error {
	f.statuses[docID] = status
	return nil
}

func (f *fakeStore) UpsertQuestions(_ context.Context, docID string, records []models.QuestionRecord) error {
	f.questions[docID] = records
	return nil
}

func (f *fakeStore) ReplaceExplanations(_ context.Context, source string, records []models.ExplanationRecord) error {
	f.explanations[source] = records
	return nil
}

func newTestActivities(t *testing.T, store *fakeStore) (*Activities, string) {
	t.Helper()
	in := t.TempDir()
	out := t.TempDir()
	files := map[string]string{
		"finance_2023.pdf": "finance-doc",
		"broken.pdf":       "garbage",
		"readme.md":        "finance-doc",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(body), 0o644))
	}
	texts := pdftext.Static{
		"finance-doc": "1. What is a budget? A. a plan B. a loan C. a tax D. a fee\nAnswer Key: 1A",
	}
	log := logging.Discard()
	ex := extractor.New(taxonomy.Default(), extractor.Options{}, log)
	runner := pipeline.New(texts, ex, log, pipeline.WithClock(func() time.Time { return fixedNow }))
	cfg := config.Config{DataInRoot: in, DataOutRoot: out}
	a := New(cfg, runner, nil, log)
	a.now = func() time.Time { return fixedNow }
	if store != nil {
		a.documents = store
		a.questions = store
		a.explanations = store
	}
	return a, in
}

func TestListPDFsActivityDefaultsToDataIn(t *testing.T) {
	a, in := newTestActivities(t, nil)
	out, err := a.ListPDFsActivity(context.Background(), ListPDFsInput{})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(in, "broken.pdf"), filepath.Join(in, "finance_2023.pdf")}, out.Paths)
}

func TestExtractDocumentActivityWritesArtifact(t *testing.T) {
	a, in := newTestActivities(t, nil)
	path := filepath.Join(in, "finance_2023.pdf")
	out, err := a.ExtractDocumentActivity(context.Background(), ExtractDocumentInput{RunID: "run-1", Path: path, Index: 1})
	require.NoError(t, err)
	require.False(t, out.Failed)
	require.Equal(t, "Finance", out.Cluster)
	require.Equal(t, 1, out.Questions)
	require.Equal(t, pipeline.DocumentID(path), out.DocID)
	require.Equal(t, "0001-finance-2023.json", filepath.Base(out.ArtifactPath))
	require.FileExists(t, out.ArtifactPath)
}

func TestExtractDocumentActivityRecordsUnreadableDocument(t *testing.T) {
	a, in := newTestActivities(t, nil)
	out, err := a.ExtractDocumentActivity(context.Background(), ExtractDocumentInput{RunID: "run-1", Path: filepath.Join(in, "broken.pdf")})
	require.NoError(t, err)
	require.True(t, out.Failed)
	require.NotEmpty(t, out.FailReason)
	require.FileExists(t, out.ArtifactPath)
}

func TestUpsertRecordsActivity(t *testing.T) {
	store := newFakeStore()
	a, in := newTestActivities(t, store)
	ctx := context.Background()

	ok, err := a.ExtractDocumentActivity(ctx, ExtractDocumentInput{RunID: "r", Path: filepath.Join(in, "finance_2023.pdf")})
	require.NoError(t, err)
	require.NoError(t, a.UpsertRecordsActivity(ctx, UpsertRecordsInput{ArtifactPath: ok.ArtifactPath}))
	doc := store.documents[ok.DocID]
	require.Equal(t, models.DocumentProcessed, doc.Status)
	require.Equal(t, models.ClusterFinance, doc.Cluster)
	require.Equal(t, 1, doc.QuestionCount)
	require.Len(t, store.questions[ok.DocID], 1)
	require.Contains(t, store.explanations, "finance_2023.pdf")

	bad, err := a.ExtractDocumentActivity(ctx, ExtractDocumentInput{RunID: "r", Path: filepath.Join(in, "broken.pdf"), Index: 1})
	require.NoError(t, err)
	require.NoError(t, a.UpsertRecordsActivity(ctx, UpsertRecordsInput{ArtifactPath: bad.ArtifactPath}))
	require.Equal(t, models.DocumentFailed, store.documents[bad.DocID].Status)
	require.NotContains(t, store.questions, bad.DocID)
}

func TestUpdateDocumentStatusActivity(t *testing.T) {
	store := newFakeStore()
	a, _ := newTestActivities(t, store)
	ctx := context.Background()

	require.NoError(t, a.UpdateDocumentStatusActivity(ctx, UpdateDocumentStatusInput{DocID: "d1", FileName: "a.pdf", Status: models.DocumentPending}))
	require.Equal(t, "a.pdf", store.documents["d1"].Filename)

	require.NoError(t, a.UpdateDocumentStatusActivity(ctx, UpdateDocumentStatusInput{DocID: "d1", Status: models.DocumentFailed, FailReason: "boom"}))
	require.Equal(t, models.DocumentFailed, store.statuses["d1"])
}

func TestPersistenceActivitiesAreNoOpsWithoutDB(t *testing.T) {
	a, _ := newTestActivities(t, nil)
	ctx := context.Background()
	require.NoError(t, a.UpdateDocumentStatusActivity(ctx, UpdateDocumentStatusInput{DocID: "d1", Status: models.DocumentPending}))
	require.NoError(t, a.UpsertRecordsActivity(ctx, UpsertRecordsInput{ArtifactPath: "/does/not/exist.json"}))
}

func TestWriteOutputsActivityMergesInOrder(t *testing.T) {
	a, in := newTestActivities(t, nil)
	ctx := context.Background()
	ok, err := a.ExtractDocumentActivity(ctx, ExtractDocumentInput{RunID: "r", Path: filepath.Join(in, "finance_2023.pdf")})
	require.NoError(t, err)

	out, err := a.WriteOutputsActivity(ctx, WriteOutputsInput{
		RunID: "r",
		Documents: []DocumentRef{
			{FileName: "finance_2023.pdf", ArtifactPath: ok.ArtifactPath},
			{FileName: "lost.pdf", FailReason: "child workflow timed out"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Files)
	require.Equal(t, 1, out.Failed)
	require.Equal(t, 1, out.Questions)

	qf, err := bank.LoadQuestions(bank.QuestionsPath(a.cfg.DataOutRoot))
	require.NoError(t, err)
	require.Equal(t, 1, qf.Metadata.TotalQuestions)
	require.Len(t, qf.Metadata.Files, 2)
	require.Equal(t, "finance_2023.pdf", qf.Metadata.Files[0].FileName)
	require.Equal(t, "lost.pdf", qf.Metadata.Files[1].FileName)
	require.Equal(t, models.DocumentFailed, qf.Metadata.Files[1].Status)
}

func TestWriteOutputsActivityMissingArtifact(t *testing.T) {
	a, _ := newTestActivities(t, nil)
	_, err := a.WriteOutputsActivity(context.Background(), WriteOutputsInput{
		Documents: []DocumentRef{{FileName: "x.pdf", ArtifactPath: filepath.Join(t.TempDir(), "missing.json")}},
	})
	require.Error(t, err)
}
