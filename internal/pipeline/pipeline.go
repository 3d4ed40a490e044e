// Package pipeline runs the extractor over a directory of PDFs and writes
// the question bank files once every document has been merged.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"decaprep/internal/bank"
	"decaprep/internal/extractor"
	"decaprep/internal/metrics"
	"decaprep/internal/models"
	"decaprep/internal/pdftext"
	"decaprep/internal/util"

	"golang.org/x/sync/errgroup"
)

// DocumentObserver receives per-document counts; *metrics.Metrics fits.
type DocumentObserver interface {
	ObserveDocument(c metrics.DocumentCounts, duration time.Duration, err error)
}

type Runner struct {
	text     pdftext.Extractor
	ex       *extractor.Extractor
	observer DocumentObserver
	log      *slog.Logger
	workers  int
	now      func() time.Time
}

type Option func(*Runner)

// WithWorkers bounds how many documents are extracted at once. Values below
// one mean strictly sequential.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

func WithObserver(o DocumentObserver) Option {
	return func(r *Runner) { r.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func New(text pdftext.Extractor, ex *extractor.Extractor, log *slog.Logger, opts ...Option) *Runner {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{text: text, ex: ex, log: log, workers: 1, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Outcome is one document's extraction, successful or not.
type Outcome struct {
	bank.DocumentResult
	DocID      string         `json:"doc_id"`
	Cluster    models.Cluster `json:"cluster"`
	Candidates int            `json:"candidates"`
	Dropped    int            `json:"dropped"`
	KeyEntries int            `json:"key_entries"`
}

func (o Outcome) Failed() bool { return o.Err != "" }

// ProcessFile reads and extracts one document. Read and text failures are
// reported in the outcome, never returned, so one bad file cannot stop a
// batch.
func (r *Runner) ProcessFile(ctx context.Context, path string) Outcome {
	start := time.Now()
	name := filepath.Base(path)
	out := Outcome{DocumentResult: bank.DocumentResult{FileName: name}}

	raw, err := os.ReadFile(path)
	out.DocID = documentID(name, raw, err)
	if err == nil {
		var text string
		text, err = r.text.ExtractText(ctx, raw)
		if err == nil {
			res := r.ex.Extract(name, text)
			out.Cluster = res.Cluster
			out.Questions = res.Questions
			out.Explanations = res.Explanations
			out.Candidates = res.Candidates
			out.Dropped = res.Dropped
			out.KeyEntries = res.KeyEntries
		} else {
			err = fmt.Errorf("extract text from %s: %w", name, err)
		}
	} else {
		err = fmt.Errorf("read %s: %w", name, err)
	}
	out.ProcessedAt = r.now().UTC()
	if err != nil {
		out.Err = err.Error()
		r.log.Warn("skipping unreadable document", "file", name, "error", err)
	}
	r.observe(out, time.Since(start), err)
	return out
}

// DocumentID is the content hash of the file at path. Files that cannot be
// read get a stable id derived from their name instead.
func DocumentID(path string) string {
	raw, err := os.ReadFile(path)
	return documentID(filepath.Base(path), raw, err)
}

func documentID(name string, raw []byte, readErr error) string {
	if readErr != nil {
		return util.SHA256Hex([]byte("unreadable:" + name))
	}
	return util.SHA256Hex(raw)
}

func (r *Runner) observe(o Outcome, d time.Duration, err error) {
	if r.observer == nil {
		return
	}
	c := metrics.DocumentCounts{
		Cluster:   string(o.Cluster),
		Questions: len(o.Questions),
		Dropped:   o.Dropped,
	}
	for _, e := range o.Explanations {
		if e.Type == models.ExplanationInline {
			c.InlineExplanations++
		} else {
			c.DetailedExplanations++
		}
	}
	r.observer.ObserveDocument(c, d, err)
}

type Summary struct {
	Files        int           `json:"files"`
	Processed    int           `json:"processed"`
	Failed       int           `json:"failed"`
	Questions    int           `json:"questions"`
	Explanations int           `json:"explanations"`
	Duration     time.Duration `json:"duration"`
}

// Run extracts every PDF in inputDir and writes both output files into
// outputDir. Documents are extracted by up to the configured number of
// workers; the merge happens on the calling goroutine in filename order, so
// the output does not depend on the worker count. Only listing and writing
// failures are returned.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	start := time.Now()
	paths, err := util.ListFilesWithSuffix(inputDir, ".pdf")
	if err != nil {
		return Summary{}, err
	}
	r.log.Info("starting extraction", "input_dir", inputDir, "files", len(paths), "workers", r.workers)

	outcomes := make([]Outcome, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.ProcessFile(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("extraction cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, fmt.Errorf("extraction cancelled: %w", err)
	}

	agg := bank.NewAggregator()
	for i, o := range outcomes {
		agg.Add(o.DocumentResult)
		if !o.Failed() {
			r.log.Info("processed file",
				"file", o.FileName,
				"progress", fmt.Sprintf("%d/%d", i+1, len(outcomes)),
				"cluster", string(o.Cluster),
				"questions", len(o.Questions),
				"dropped", o.Dropped,
				"explanations", len(o.Explanations),
			)
		}
	}
	if err := agg.Write(outputDir, r.now()); err != nil {
		return Summary{}, err
	}

	s := Summary{
		Files:        len(paths),
		Processed:    agg.Processed(),
		Failed:       agg.Failed(),
		Questions:    agg.TotalQuestions(),
		Explanations: agg.TotalExplanations(),
		Duration:     time.Since(start),
	}
	r.log.Info("extraction complete",
		"files", s.Files,
		"processed", s.Processed,
		"failed", s.Failed,
		"questions", s.Questions,
		"explanations", s.Explanations,
		"output_dir", outputDir,
		"duration_ms", s.Duration.Milliseconds(),
	)
	return s, nil
}
