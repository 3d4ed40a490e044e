package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "deca"

// Metrics is the extraction and API instrumentation for one process. Each
// instance owns its registry so tests and binaries never collide.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	documentsTotal        *prometheus.CounterVec
	documentDuration      *prometheus.HistogramVec
	questionsExtracted    *prometheus.CounterVec
	questionsDropped      *prometheus.CounterVec
	explanationsExtracted *prometheus.CounterVec

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	providerCalls *prometheus.CounterVec
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "documents_total",
			Help:      "Documents processed by status.",
		},
		[]string{"service", "status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "document_duration_seconds",
			Help:      "Time spent reading and extracting one document.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	questionsExtracted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "questions_extracted_total",
			Help:      "Complete questions emitted.",
		},
		[]string{"service", "cluster"},
	)
	questionsDropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "questions_dropped_total",
			Help:      "Question candidates dropped for missing options or stem.",
		},
		[]string{"service", "cluster"},
	)
	explanationsExtracted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "explanations_extracted_total",
			Help:      "Explanations emitted by type.",
		},
		[]string{"service", "type"},
	)
	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)
	providerCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Generative provider calls by provider and outcome.",
		},
		[]string{"service", "provider", "outcome"},
	)

	registry.MustRegister(
		documentsTotal,
		documentDuration,
		questionsExtracted,
		questionsDropped,
		explanationsExtracted,
		requestTotal,
		requestDuration,
		providerCalls,
	)

	return &Metrics{
		registry:              registry,
		service:               service,
		documentsTotal:        documentsTotal,
		documentDuration:      documentDuration,
		questionsExtracted:    questionsExtracted,
		questionsDropped:      questionsDropped,
		explanationsExtracted: explanationsExtracted,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		providerCalls:         providerCalls,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Server exposes the registry on addr at /metrics, for processes that do
// not run the API router.
func (m *Metrics) Server(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// Push replaces the job's metric group on a Prometheus pushgateway. Batch
// runs call it once before exiting.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx)
}

// WriteTextfile dumps the registry in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// DocumentCounts is what one document contributed, as seen by metrics.
type DocumentCounts struct {
	Cluster              string
	Questions            int
	Dropped              int
	InlineExplanations   int
	DetailedExplanations int
}

func (m *Metrics) ObserveDocument(c DocumentCounts, duration time.Duration, err error) {
	status := "processed"
	if err != nil {
		status = "failed"
	}
	m.documentsTotal.WithLabelValues(m.service, status).Inc()
	m.documentDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
	if err != nil {
		return
	}
	cluster := c.Cluster
	if cluster == "" {
		cluster = "unknown"
	}
	m.questionsExtracted.WithLabelValues(m.service, cluster).Add(float64(c.Questions))
	m.questionsDropped.WithLabelValues(m.service, cluster).Add(float64(c.Dropped))
	m.explanationsExtracted.WithLabelValues(m.service, "inline").Add(float64(c.InlineExplanations))
	m.explanationsExtracted.WithLabelValues(m.service, "detailed").Add(float64(c.DetailedExplanations))
}

func (m *Metrics) RecordProviderCall(provider, outcome string) {
	if provider == "" {
		provider = "unknown"
	}
	m.providerCalls.WithLabelValues(m.service, provider, outcome).Inc()
}

// Middleware records request counts and latency. route names the matched
// route pattern so IDs in paths do not explode label cardinality.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			name := route(r)
			if name == "" {
				name = "unmatched"
			}
			m.requestTotal.WithLabelValues(m.service, r.Method, name, strconv.Itoa(rec.statusCode)).Inc()
			m.requestDuration.WithLabelValues(m.service, r.Method, name).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
