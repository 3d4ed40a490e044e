package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"decaprep/internal/bank"
	"decaprep/internal/config"
	"decaprep/internal/metrics"
	"decaprep/internal/models"
	"decaprep/internal/providers"
	"decaprep/internal/storage"
	"decaprep/internal/workflows"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrNotConfigured marks endpoints whose backing service was not wired.
var ErrNotConfigured = errors.New("not configured")

const (
	defaultQuestionLimit = 20
	maxQuestionLimit     = 200
)

type DocumentLister interface {
	ListDocuments(ctx context.Context, status string) ([]models.Document, error)
	GetDocument(ctx context.Context, docID string) (models.Document, error)
}

type CallAuditor interface {
	Insert(ctx context.Context, rec storage.LLMCallRecord) error
	ListByQuestion(ctx context.Context, questionID string, limit int) ([]storage.LLMCallRecord, error)
}

type Generator interface {
	Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error)
}

type IngestClient interface {
	Start(ctx context.Context, workflowID string, in workflows.ExtractionBatchInput) (runID string, err error)
	Progress(ctx context.Context, workflowID string) (workflows.BatchProgress, error)
}

// Deps are the collaborators of a Server. Only Bank is required; the
// endpoints of a missing collaborator answer 503.
type Deps struct {
	Bank      *bank.Cache
	Documents DocumentLister
	Audit     CallAuditor
	LLM       Generator
	Ingest    IngestClient
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

type Server struct {
	cfg       config.Config
	bank      *bank.Cache
	documents DocumentLister
	audit     CallAuditor
	llm       Generator
	ingest    IngestClient
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New("deca-api")
	}
	if d.Bank == nil {
		d.Bank = bank.NewCache(cfg.DataOutRoot)
	}
	return &Server{
		cfg:       cfg,
		bank:      d.Bank,
		documents: d.Documents,
		audit:     d.Audit,
		llm:       d.LLM,
		ingest:    d.Ingest,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware(routePattern))
	r.Use(withCORS(s.cfg.CORSOrigin))

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", s.handleQuestions)
		r.Get("/{id}", s.handleQuestion)
		r.Get("/{id}/explanations", s.handleQuestionExplanations)
		r.Post("/{id}/tutor", s.handleTutor)
		r.Get("/{id}/tutor/history", s.handleTutorHistory)
	})
	r.Get("/explanations/search", s.handleSearchExplanations)
	r.Post("/bank/reload", s.handleReload)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleDocuments)
		r.Post("/upload", s.handleUpload)
		r.Get("/{docID}", s.handleDocument)
	})
	r.Post("/ingest", s.handleIngest)
	r.Get("/ingest/{workflowID}/progress", s.handleIngestProgress)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	})
	return r
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cluster := models.Cluster(strings.TrimSpace(q.Get("cluster")))
	if cluster != "" && !cluster.Valid() {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown cluster %q", cluster))
		return
	}
	limit, err := parseLimit(q.Get("limit"), defaultQuestionLimit, maxQuestionLimit)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	seen := map[string]struct{}{}
	for _, id := range strings.Split(q.Get("exclude"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			seen[id] = struct{}{}
		}
	}
	out, err := s.bank.SelectUnseen(cluster, seen, limit)
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": out, "count": len(out)})
}

func (s *Server) lookupQuestion(w http.ResponseWriter, r *http.Request) (models.QuestionRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, ok, err := s.bank.Question(id)
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return models.QuestionRecord{}, false
	}
	if !ok {
		writeErr(w, http.StatusNotFound, fmt.Errorf("question %s not found", id))
		return models.QuestionRecord{}, false
	}
	return rec, true
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupQuestion(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleQuestionExplanations(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupQuestion(w, r)
	if !ok {
		return
	}
	exps, err := s.bank.ExplanationsFor(rec)
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question_id": rec.ID, "explanations": exps})
}

func (s *Server) handleSearchExplanations(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("q is required"))
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultQuestionLimit, maxQuestionLimit)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.bank.SearchExplanations(query, limit)
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"explanations": out, "count": len(out)})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if err := s.bank.Reload(); err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	stats, err := s.bank.Stats()
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	s.log.Info("question bank reloaded", "questions", stats.Questions, "explanations", stats.Explanations)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("document store %w", ErrNotConfigured))
		return
	}
	docs, err := s.documents.ListDocuments(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("document store %w", ErrNotConfigured))
		return
	}
	doc, err := s.documents.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if errors.Is(err, storage.ErrNotFound) {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func parseLimit(raw string, fallback, max int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

// bankStatus maps a bank read failure to a status: a bank that was never
// generated is unavailable, anything else is a server error.
func bankStatus(err error) int {
	if errors.Is(err, os.ErrNotExist) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "DP-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status == http.StatusServiceUnavailable:
		switch {
		case errors.Is(err, ErrNotConfigured):
			return apiError{
				Code:    "DP-API-5030",
				Message: "This feature is not configured on the server.",
			}
		case errors.Is(err, os.ErrNotExist):
			return apiError{
				Code:    "DP-BANK-5031",
				Message: "The question bank has not been generated yet. Run an extraction and retry.",
			}
		default:
			return apiError{
				Code:    "DP-API-5030",
				Message: "Service temporarily unavailable. Retry shortly.",
			}
		}
	case status == http.StatusBadGateway:
		return apiError{
			Code:    "DP-API-5020",
			Message: "Upstream provider unavailable. Retry shortly.",
		}
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "DP-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "DP-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "DP-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "DP-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "DP-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "DP-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "DP-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "unknown cluster"):
			msg = "Unknown cluster. Use one of the published cluster names."
		case strings.Contains(raw, "limit must be"):
			msg = "Limit must be a positive integer."
		case strings.Contains(raw, "q is required"):
			msg = "A search query is required."
		case strings.Contains(raw, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
