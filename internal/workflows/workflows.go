package workflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"decaprep/internal/activities"
	"decaprep/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetProgress       = "GetProgress"
	QueryGetDocumentStatus = "GetDocumentStatus"
)

const defaultMaxChildren = 3

// ExtractionBatchWorkflow extracts every PDF of a directory through one child
// workflow per document, at most MaxConcurrentChildren at a time, then merges
// the per-document artifacts into the bank files in listing order.
func ExtractionBatchWorkflow(ctx workflow.Context, input ExtractionBatchInput) (ExtractionBatchResult, error) {
	runID := workflow.GetInfo(ctx).WorkflowExecution.ID
	progress := BatchProgress{
		RunID:         runID,
		PerDocument:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return ExtractionBatchResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	var listOut activities.ListPDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListPDFsActivity", activities.ListPDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return ExtractionBatchResult{}, err
	}
	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = defaultMaxChildren
	}

	refs := make([]activities.DocumentRef, len(paths))
	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		for j := i; j < end; j++ {
			name := filepath.Base(paths[j])
			progress.PerDocument[name] = "processing"
			workflowID := fmt.Sprintf("doc-%s-%d-%s", sanitizeID(runID), j, sanitizeID(name))
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, DocumentExtractWorkflow, DocumentExtractInput{
				RunID: runID,
				Path:  paths[j],
				Index: j,
			}))
			progress.ChildWorkflow[name] = workflowID
		}

		for k, f := range futures {
			j := i + k
			name := filepath.Base(paths[j])
			var res DocumentExtractResult
			if err := f.Get(ctx, &res); err != nil {
				progress.Failed++
				progress.Done++
				progress.PerDocument[name] = models.DocumentFailed
				refs[j] = activities.DocumentRef{FileName: name, FailReason: err.Error()}
				continue
			}
			if res.Status == models.DocumentFailed {
				progress.Failed++
			}
			progress.Done++
			progress.Questions += res.Questions
			progress.Explanations += res.Explanations
			progress.PerDocument[name] = res.Status
			if res.PersistError != "" {
				progress.PersistFailed++
			}
			refs[j] = activities.DocumentRef{FileName: name, ArtifactPath: res.ArtifactPath, FailReason: res.FailReason}
		}
	}

	var out activities.WriteOutputsOutput
	if err := workflow.ExecuteActivity(ctx, "WriteOutputsActivity", activities.WriteOutputsInput{
		RunID:     runID,
		OutputDir: input.OutputDir,
		Documents: refs,
	}).Get(ctx, &out); err != nil {
		return ExtractionBatchResult{}, err
	}
	progress.Completed = true

	return ExtractionBatchResult{
		RunID:        runID,
		OutputDir:    out.OutputDir,
		Files:        out.Files,
		Failed:       out.Failed,
		Questions:    out.Questions,
		Explanations: out.Explanations,
	}, nil
}

// DocumentExtractWorkflow extracts and persists a single document. An
// unreadable document completes with status failed rather than an error, and
// a persistence failure is reported in PersistError.
func DocumentExtractWorkflow(ctx workflow.Context, input DocumentExtractInput) (DocumentExtractResult, error) {
	status := DocumentStatus{
		Path:        input.Path,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return DocumentExtractResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	filename := filepath.Base(input.Path)
	result := DocumentExtractResult{FileName: filename}

	status.CurrentStep = "compute_doc_id"
	status.Steps[status.CurrentStep] = "processing"
	var idOut activities.ComputeDocIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeDocIDActivity", activities.ComputeDocIDInput{Path: input.Path}).Get(ctx, &idOut); err != nil {
		return result, err
	}
	status.DocID = idOut.DocID
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocID: idOut.DocID, FileName: filename, Status: models.DocumentPending,
	}).Get(ctx, nil)

	status.CurrentStep = "extract"
	status.Steps[status.CurrentStep] = "processing"
	var exOut activities.ExtractDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractDocumentActivity", activities.ExtractDocumentInput{
		RunID: input.RunID,
		Path:  input.Path,
		Index: input.Index,
	}).Get(ctx, &exOut); err != nil {
		return result, err
	}
	result.ArtifactPath = exOut.ArtifactPath
	if exOut.Failed {
		status.Status = models.DocumentFailed
		status.FailReason = exOut.FailReason
		status.Steps[status.CurrentStep] = "failed"
		_ = workflow.ExecuteActivity(ctx, "UpsertRecordsActivity", activities.UpsertRecordsInput{ArtifactPath: exOut.ArtifactPath}).Get(ctx, nil)
		result.Status = models.DocumentFailed
		result.FailReason = exOut.FailReason
		return result, nil
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "persist"
	status.Steps[status.CurrentStep] = "processing"
	result.Status = models.DocumentProcessed
	result.Questions = exOut.Questions
	result.Explanations = exOut.Explanations
	status.Status = models.DocumentProcessed

	// The artifact is complete at this point and still feeds the bank files
	// when the database rejects the records.
	if err := workflow.ExecuteActivity(ctx, "UpsertRecordsActivity", activities.UpsertRecordsInput{ArtifactPath: exOut.ArtifactPath}).Get(ctx, nil); err != nil {
		result.PersistError = "persist records: " + err.Error()
		status.FailReason = result.PersistError
		status.Steps[status.CurrentStep] = "failed"
		workflow.GetLogger(ctx).Warn("persist failed", "path", input.Path, "error", err)
		_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
			DocID: idOut.DocID, FileName: filename, Status: models.DocumentFailed, FailReason: result.PersistError,
		}).Get(ctx, nil)
		return result, nil
	}
	status.Steps[status.CurrentStep] = "done"
	return result, nil
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
