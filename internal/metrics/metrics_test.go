package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveDocument(t *testing.T) {
	m := New("test")
	m.ObserveDocument(DocumentCounts{Cluster: "Finance", Questions: 3, Dropped: 1, InlineExplanations: 2}, time.Second, nil)
	m.ObserveDocument(DocumentCounts{}, time.Millisecond, errors.New("unreadable"))

	body := scrape(t, m)
	require.Contains(t, body, `deca_extractor_documents_total{service="test",status="processed"} 1`)
	require.Contains(t, body, `deca_extractor_documents_total{service="test",status="failed"} 1`)
	require.Contains(t, body, `deca_extractor_questions_extracted_total{cluster="Finance",service="test"} 3`)
	require.Contains(t, body, `deca_extractor_questions_dropped_total{cluster="Finance",service="test"} 1`)
	require.Contains(t, body, `deca_extractor_explanations_extracted_total{service="test",type="inline"} 2`)
}

func TestMiddleware(t *testing.T) {
	m := New("test")
	h := m.Middleware(func(*http.Request) string { return "/questions/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := scrape(t, m)
	require.Contains(t, body, `deca_http_requests_total{method="GET",route="/questions/{id}",service="test",status="404"} 1`)
}

func TestRecordProviderCall(t *testing.T) {
	m := New("test")
	m.RecordProviderCall("", "ok")
	require.Contains(t, scrape(t, m), `deca_llm_calls_total{outcome="ok",provider="unknown",service="test"} 1`)
}

func TestServerServesRegistry(t *testing.T) {
	m := New("worker")
	m.ObserveDocument(DocumentCounts{Cluster: "Finance", Questions: 2}, time.Second, nil)

	srv := m.Server(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `deca_extractor_questions_extracted_total{cluster="Finance",service="worker"} 2`)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPush(t *testing.T) {
	var method, path, body string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	m := New("extract")
	m.ObserveDocument(DocumentCounts{Cluster: "Finance", Questions: 3}, time.Second, nil)
	require.NoError(t, m.Push(context.Background(), gw.URL, "deca-extract"))
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/metrics/job/deca-extract", path)
	require.NotEmpty(t, body)
}

func TestPushGatewayError(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer gw.Close()

	require.Error(t, New("extract").Push(context.Background(), gw.URL, "deca-extract"))
}

func TestWriteTextfile(t *testing.T) {
	m := New("extract")
	m.ObserveDocument(DocumentCounts{}, time.Millisecond, errors.New("unreadable"))

	path := filepath.Join(t.TempDir(), "deca.prom")
	require.NoError(t, m.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `deca_extractor_documents_total{service="extract",status="failed"} 1`)
}
