package api

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"decaprep/internal/models"
	"decaprep/internal/util"
	"decaprep/internal/workflows"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

// TemporalIngest starts and queries extraction batches on a Temporal cluster.
type TemporalIngest struct {
	Client    tclient.Client
	TaskQueue string
}

func (t TemporalIngest) Start(ctx context.Context, workflowID string, in workflows.ExtractionBatchInput) (string, error) {
	we, err := t.Client.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       workflowID,
		TaskQueue:                                t.TaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ExtractionBatchWorkflow, in)
	if err != nil {
		return "", err
	}
	return we.GetRunID(), nil
}

func (t TemporalIngest) Progress(ctx context.Context, workflowID string) (workflows.BatchProgress, error) {
	var prog workflows.BatchProgress
	resp, err := t.Client.QueryWorkflow(ctx, workflowID, "", workflows.QueryGetProgress)
	if err != nil {
		return prog, err
	}
	if err := resp.Get(&prog); err != nil {
		return prog, err
	}
	return prog, nil
}

type ingestRequest struct {
	// InputDir is relative to the server's input root.
	InputDir              string `json:"input_dir"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("ingest %w", ErrNotConfigured))
		return
	}
	var req ingestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}
	maxChildren := req.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = s.cfg.IngestMaxChildren
	}
	in := workflows.ExtractionBatchInput{
		InputDir:              inputDirUnder(s.cfg.DataInRoot, req.InputDir),
		OutputDir:             s.cfg.DataOutRoot,
		MaxConcurrentChildren: maxChildren,
	}
	wfID := "extract-" + uuid.NewString()
	runID, err := s.ingest.Start(r.Context(), wfID, in)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("ingest started", "workflow_id", wfID, "input_dir", in.InputDir, "max_children", maxChildren)
	writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": wfID, "run_id": runID})
}

// inputDirUnder resolves rel inside root; parent references cannot escape it.
func inputDirUnder(root, rel string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return root
	}
	return filepath.Join(root, filepath.Clean("/"+rel))
}

func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("ingest %w", ErrNotConfigured))
		return
	}
	prog, err := s.ingest.Progress(r.Context(), chi.URLParam(r, "workflowID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

type uploadResult struct {
	Filename string `json:"filename"`
	DocID    string `json:"doc_id"`
}

// handleUpload stores PDFs in the input root for the next ingest.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	if err := util.EnsureDir(s.cfg.DataInRoot); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			continue
		}
		docID, savedPath, err := saveUploadedFile(s.cfg.DataInRoot, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if s.documents != nil {
			if up, ok := s.documents.(documentUpserter); ok {
				if err := up.UpsertDocument(r.Context(), models.Document{
					DocID:    docID,
					Filename: filepath.Base(savedPath),
					Status:   models.DocumentPending,
				}); err != nil {
					writeErr(w, http.StatusInternalServerError, err)
					return
				}
			}
		}
		out = append(out, uploadResult{Filename: filepath.Base(savedPath), DocID: docID})
	}
	if len(out) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

type documentUpserter interface {
	UpsertDocument(ctx context.Context, d models.Document) error
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (docID, path string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), src); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}

	docID = fmt.Sprintf("%x", h.Sum(nil))
	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", "", fmt.Errorf("atomic move upload: %w", err)
	}
	return docID, finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}
