package activities

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"decaprep/internal/bank"
	"decaprep/internal/config"
	"decaprep/internal/models"
	"decaprep/internal/pipeline"
	"decaprep/internal/storage"
	"decaprep/internal/util"
)

type DocumentStore interface {
	UpsertDocument(ctx context.Context, d models.Document) error
	UpdateDocumentStatus(ctx context.Context, docID, status, failReason string) error
}

type QuestionStore interface {
	UpsertQuestions(ctx context.Context, docID string, records []models.QuestionRecord) error
}

type ExplanationStore interface {
	ReplaceExplanations(ctx context.Context, source string, records []models.ExplanationRecord) error
}

type Activities struct {
	cfg          config.Config
	runner       *pipeline.Runner
	documents    DocumentStore
	questions    QuestionStore
	explanations ExplanationStore
	log          *slog.Logger
	now          func() time.Time
}

// New wires the activities to Postgres. A nil db leaves persistence off:
// the status and upsert activities become no-ops and only files are written.
func New(cfg config.Config, runner *pipeline.Runner, db *storage.DB, log *slog.Logger) *Activities {
	if log == nil {
		log = slog.Default()
	}
	a := &Activities{cfg: cfg, runner: runner, log: log, now: time.Now}
	if db != nil {
		a.documents = storage.NewDocumentRepo(db)
		a.questions = storage.NewQuestionRepo(db)
		a.explanations = storage.NewExplanationRepo(db)
	}
	return a
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	dir := in.InputDir
	if dir == "" {
		dir = a.cfg.DataInRoot
	}
	paths, err := util.ListFilesWithSuffix(dir, ".pdf")
	if err != nil {
		return ListPDFsOutput{}, err
	}
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ComputeDocIDActivity(ctx context.Context, in ComputeDocIDInput) (ComputeDocIDOutput, error) {
	_ = ctx
	return ComputeDocIDOutput{DocID: pipeline.DocumentID(in.Path)}, nil
}

// ExtractDocumentActivity extracts one PDF and writes the full outcome as a
// JSON artifact. Unreadable documents are not an activity error: the
// artifact records the failure so the batch summary can list it.
func (a *Activities) ExtractDocumentActivity(ctx context.Context, in ExtractDocumentInput) (ExtractDocumentOutput, error) {
	o := a.runner.ProcessFile(ctx, in.Path)
	path := a.artifactPath(in.RunID, in.Index, in.Path)
	if err := util.WriteJSONAtomic(path, o); err != nil {
		return ExtractDocumentOutput{}, fmt.Errorf("write artifact: %w", err)
	}
	return ExtractDocumentOutput{
		DocID:        o.DocID,
		FileName:     o.FileName,
		Cluster:      string(o.Cluster),
		Questions:    len(o.Questions),
		Explanations: len(o.Explanations),
		Dropped:      o.Dropped,
		Failed:       o.Failed(),
		FailReason:   o.Err,
		ArtifactPath: path,
	}, nil
}

func (a *Activities) artifactPath(runID string, index int, docPath string) string {
	name := fmt.Sprintf("%04d-%s.json", index, util.Slug(util.FileStem(docPath)))
	return filepath.Join(a.cfg.DataOutRoot, "runs", runID, "artifacts", name)
}

// UpsertRecordsActivity persists an extracted document. Question ids are
// deterministic and explanations are replaced per source, so re-running a
// document does not duplicate rows.
func (a *Activities) UpsertRecordsActivity(ctx context.Context, in UpsertRecordsInput) error {
	if a.documents == nil {
		return nil
	}
	var o pipeline.Outcome
	if err := util.ReadJSON(in.ArtifactPath, &o); err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	doc := models.Document{
		DocID:            o.DocID,
		Filename:         o.FileName,
		Cluster:          o.Cluster,
		Status:           models.DocumentProcessed,
		QuestionCount:    len(o.Questions),
		ExplanationCount: len(o.Explanations),
	}
	if o.Failed() {
		doc.Status = models.DocumentFailed
		doc.FailReason = o.Err
		return a.documents.UpsertDocument(ctx, doc)
	}
	if err := a.documents.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	if err := a.questions.UpsertQuestions(ctx, o.DocID, o.Questions); err != nil {
		return err
	}
	return a.explanations.ReplaceExplanations(ctx, o.FileName, o.Explanations)
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	if a.documents == nil {
		return nil
	}
	if in.Status == models.DocumentPending {
		return a.documents.UpsertDocument(ctx, models.Document{
			DocID:    in.DocID,
			Filename: in.FileName,
			Status:   in.Status,
		})
	}
	return a.documents.UpdateDocumentStatus(ctx, in.DocID, in.Status, in.FailReason)
}

// WriteOutputsActivity merges the batch's artifacts in the given order and
// writes both bank files once.
func (a *Activities) WriteOutputsActivity(ctx context.Context, in WriteOutputsInput) (WriteOutputsOutput, error) {
	dir := in.OutputDir
	if dir == "" {
		dir = a.cfg.DataOutRoot
	}
	agg := bank.NewAggregator()
	for _, ref := range in.Documents {
		if err := ctx.Err(); err != nil {
			return WriteOutputsOutput{}, err
		}
		if ref.ArtifactPath == "" {
			agg.Add(bank.DocumentResult{FileName: ref.FileName, ProcessedAt: a.now().UTC(), Err: ref.FailReason})
			continue
		}
		var o pipeline.Outcome
		if err := util.ReadJSON(ref.ArtifactPath, &o); err != nil {
			return WriteOutputsOutput{}, fmt.Errorf("read artifact for %s: %w", ref.FileName, err)
		}
		agg.Add(o.DocumentResult)
	}
	if err := agg.Write(dir, a.now()); err != nil {
		return WriteOutputsOutput{}, err
	}
	a.log.Info("batch outputs written",
		"run_id", in.RunID,
		"output_dir", dir,
		"files", len(in.Documents),
		"failed", agg.Failed(),
		"questions", agg.TotalQuestions(),
		"explanations", agg.TotalExplanations(),
	)
	return WriteOutputsOutput{
		OutputDir:    dir,
		Files:        len(in.Documents),
		Failed:       agg.Failed(),
		Questions:    agg.TotalQuestions(),
		Explanations: agg.TotalExplanations(),
	}, nil
}
