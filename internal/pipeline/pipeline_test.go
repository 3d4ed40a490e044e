package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"decaprep/internal/bank"
	"decaprep/internal/extractor"
	"decaprep/internal/logging"
	"decaprep/internal/metrics"
	"decaprep/internal/models"
	"decaprep/internal/pdftext"
	"decaprep/internal/taxonomy"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// Each fake PDF's bytes are the key into the static text table.
var texts = pdftext.Static{
	"finance-doc":   "1. What is a budget? A. a plan B. a loan C. a tax D. a fee\n2. What is an asset? A. cash B. debt C. loss D. cost\nAnswer Key: 1A 2A\nExplanations\n1. A budget plans spending.",
	"marketing-doc": "1. Which price works? A. high B. low C. mid D. none Answer Key: 1C",
	"empty-doc":     "Cover page only.",
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (c *countingObserver) ObserveDocument(_ metrics.DocumentCounts, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"finance_2023.pdf":   "finance-doc",
		"marketing_2022.PDF": "marketing-doc",
		"cover.pdf":          "empty-doc",
		"broken.pdf":         "not a known document",
		"notes.txt":          "finance-doc",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))
	return dir
}

func newRunner(workers int, obs DocumentObserver) *Runner {
	ex := extractor.New(taxonomy.Default(), extractor.Options{}, logging.Discard())
	opts := []Option{WithWorkers(workers), WithClock(func() time.Time { return fixedNow })}
	if obs != nil {
		opts = append(opts, WithObserver(obs))
	}
	return New(texts, ex, logging.Discard(), opts...)
}

func TestRunSkipsUnreadableAndWritesOutputs(t *testing.T) {
	in := writeInputs(t)
	out := t.TempDir()
	obs := &countingObserver{}

	s, err := newRunner(1, obs).Run(context.Background(), in, out)
	require.NoError(t, err)
	require.Equal(t, 4, s.Files)
	require.Equal(t, 3, s.Processed)
	require.Equal(t, 1, s.Failed)
	require.Equal(t, 3, s.Questions)
	require.Equal(t, 1, s.Explanations)
	require.Equal(t, 3, obs.ok)
	require.Equal(t, 1, obs.failed)

	q, err := bank.LoadQuestions(bank.QuestionsPath(out))
	require.NoError(t, err)
	require.Len(t, q.Questions, 3)
	require.Equal(t, 3, q.Metadata.TotalFiles)
	require.Equal(t, fixedNow, q.Metadata.ProcessedAt)

	var names []string
	for _, f := range q.Metadata.Files {
		names = append(names, f.FileName)
	}
	require.Equal(t, []string{"broken.pdf", "cover.pdf", "finance_2023.pdf", "marketing_2022.PDF"}, names)
	require.Equal(t, models.DocumentFailed, q.Metadata.Files[0].Status)
	require.Contains(t, q.Metadata.Files[0].Error, "unreadable pdf")

	require.Equal(t, models.ClusterFinance, q.Questions[0].Cluster)
	require.Equal(t, "finance_2023.pdf", q.Questions[0].Source)
	require.Equal(t, models.ClusterMarketing, q.Questions[2].Cluster)
	require.Equal(t, "C", q.Questions[2].CorrectAnswer)

	e, err := bank.LoadExplanations(bank.ExplanationsPath(out))
	require.NoError(t, err)
	require.Equal(t, 1, e.Metadata.TotalExplanations)
	require.Equal(t, "A budget plans spending.", e.Explanations[0].Explanation)
}

func TestRunOutputIndependentOfWorkerCount(t *testing.T) {
	in := writeInputs(t)
	seqOut, parOut := t.TempDir(), t.TempDir()

	_, err := newRunner(1, nil).Run(context.Background(), in, seqOut)
	require.NoError(t, err)
	_, err = newRunner(4, nil).Run(context.Background(), in, parOut)
	require.NoError(t, err)

	seq, err := os.ReadFile(bank.QuestionsPath(seqOut))
	require.NoError(t, err)
	par, err := os.ReadFile(bank.QuestionsPath(parOut))
	require.NoError(t, err)
	require.Equal(t, string(seq), string(par))
}

func TestRunWriteFailureIsReturned(t *testing.T) {
	in := writeInputs(t)
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := newRunner(1, nil).Run(context.Background(), in, blocker)
	require.Error(t, err)
	require.Contains(t, err.Error(), "write questions file")
}

func TestRunMissingInputDir(t *testing.T) {
	_, err := newRunner(1, nil).Run(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	in := writeInputs(t)
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(2, nil).Run(ctx, in, out)
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(bank.QuestionsPath(out))
	require.True(t, os.IsNotExist(statErr))
}

func TestProcessFileOutcome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finance_2023.pdf")
	require.NoError(t, os.WriteFile(path, []byte("finance-doc"), 0o644))

	o := newRunner(1, nil).ProcessFile(context.Background(), path)
	require.False(t, o.Failed())
	require.Len(t, o.DocID, 64)
	require.Equal(t, 2, o.Candidates)
	require.Equal(t, 2, o.KeyEntries)

	missing := newRunner(1, nil).ProcessFile(context.Background(), filepath.Join(dir, "gone.pdf"))
	require.True(t, missing.Failed())
	require.Equal(t, "gone.pdf", missing.FileName)
}

func TestDocumentID(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(p, []byte("finance-doc"), 0o644))
	require.Equal(t, DocumentID(p), DocumentID(p))
	require.Len(t, DocumentID(p), 64)

	missing := filepath.Join(dir, "gone.pdf")
	require.Equal(t, DocumentID(missing), DocumentID(filepath.Join(t.TempDir(), "gone.pdf")))
	require.NotEqual(t, DocumentID(p), DocumentID(missing))
}
