package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"decaprep/internal/models"
	"decaprep/internal/providers"
	"decaprep/internal/storage"

	"github.com/google/uuid"
)

const tutorOperation = "tutor_explain"

type tutorRequest struct {
	// FollowUp is the student's own question about the item, if any.
	FollowUp string `json:"follow_up"`
	// Chosen is the letter the student picked.
	Chosen string `json:"chosen"`
}

func (s *Server) handleTutor(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("llm %w", ErrNotConfigured))
		return
	}
	var req tutorRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}
	rec, ok := s.lookupQuestion(w, r)
	if !ok {
		return
	}
	exps, err := s.bank.ExplanationsFor(rec)
	if err != nil {
		writeErr(w, bankStatus(err), err)
		return
	}
	refs := make([]string, 0, len(exps))
	for _, e := range exps {
		refs = append(refs, e.Explanation)
	}

	start := time.Now()
	resp, info, err := s.llm.Generate(r.Context(), providers.GenerateRequest{
		Operation: tutorOperation,
		Prompt:    tutorPrompt(rec, req),
		Context:   refs,
		Config:    providers.GenerationConfig{Temperature: 0.2, MaxTokens: 600},
	})
	s.auditCall(r, rec.ID, info, time.Since(start), err)
	if err != nil {
		s.log.Warn("tutor generation failed", "question_id", rec.ID, "provider", info.Name, "error", err)
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question_id":    rec.ID,
		"correct_answer": rec.CorrectAnswer,
		"answer":         resp.Text,
		"provider":       info.Name,
		"model":          info.Model,
	})
}

func (s *Server) auditCall(r *http.Request, questionID string, info providers.ProviderInfo, latency time.Duration, callErr error) {
	if s.audit == nil {
		return
	}
	rec := storage.LLMCallRecord{
		CallID:       uuid.NewString(),
		Operation:    tutorOperation,
		QuestionID:   questionID,
		ProviderName: info.Name,
		Model:        info.Model,
		Status:       "ok",
		Latency:      latency,
	}
	if rec.ProviderName == "" {
		rec.ProviderName = "unknown"
	}
	if callErr != nil {
		rec.Status = "failed"
		rec.ErrorType = string(providers.ClassifyError(callErr))
	}
	if err := s.audit.Insert(r.Context(), rec); err != nil {
		s.log.Warn("llm audit insert failed", "question_id", questionID, "error", err)
	}
}

type tutorCall struct {
	CallID    string    `json:"call_id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model,omitempty"`
	Status    string    `json:"status"`
	ErrorType string    `json:"error_type,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleTutorHistory(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeErr(w, http.StatusServiceUnavailable, fmt.Errorf("call audit %w", ErrNotConfigured))
		return
	}
	rec, ok := s.lookupQuestion(w, r)
	if !ok {
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultQuestionLimit, maxQuestionLimit)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	calls, err := s.audit.ListByQuestion(r.Context(), rec.ID, limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]tutorCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, tutorCall{
			CallID:    c.CallID,
			Provider:  c.ProviderName,
			Model:     c.Model,
			Status:    c.Status,
			ErrorType: c.ErrorType,
			LatencyMS: c.Latency.Milliseconds(),
			CreatedAt: c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"question_id": rec.ID, "calls": out})
}

func tutorPrompt(q models.QuestionRecord, req tutorRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a DECA %s exam tutor. Explain the answer to this multiple-choice question.\n\n", q.Cluster)
	fmt.Fprintf(&b, "Question %d: %s\n", q.QuestionNumber, q.QuestionText)
	for _, l := range models.Letters {
		fmt.Fprintf(&b, "%s. %s\n", l, q.Options.Get(l))
	}
	if q.CorrectAnswer != "" {
		fmt.Fprintf(&b, "\nCorrect answer: %s\n", q.CorrectAnswer)
	}
	if chosen := strings.ToUpper(strings.TrimSpace(req.Chosen)); chosen != "" {
		fmt.Fprintf(&b, "The student chose %s.", chosen)
		if q.CorrectAnswer != "" && chosen != q.CorrectAnswer {
			b.WriteString(" Explain why that choice is wrong.")
		}
		b.WriteString("\n")
	}
	if len(q.PerformanceIndicators) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(q.PerformanceIndicators, ", "))
	}
	if f := strings.TrimSpace(req.FollowUp); f != "" {
		fmt.Fprintf(&b, "\nStudent follow-up: %s\n", f)
	}
	b.WriteString("\nUse the reference explanations when they are provided. Answer in short markdown sections.")
	return b.String()
}
