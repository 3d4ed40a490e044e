package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIAddr           string
	CORSOrigin        string
	LogLevel          string
	TemporalAddress   string
	TemporalTaskQueue string
	PostgresURL       string
	DataInRoot        string
	DataOutRoot       string
	MetricsAddr       string
	PushgatewayURL    string

	Workers           int
	IngestMaxChildren int
	AnswerJoin        string
	KeyPrecedence     string
	TaxonomyPath      string

	LLMProviders       string
	LLMRatePerSecond   float64
	LLMBurst           int
	LLMMaxRetries      int
	LLMRetryBackoff    time.Duration
	LLMBreakerFailures int
	LLMBreakerCooldown time.Duration
}

func Load() Config {
	return Config{
		APIAddr:           getenv("DECA_API_ADDR", ":8080"),
		CORSOrigin:        getenv("DECA_CORS_ORIGIN", "*"),
		LogLevel:          getenv("DECA_LOG_LEVEL", "info"),
		TemporalAddress:   getenv("DECA_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("DECA_TEMPORAL_TASK_QUEUE", "deca-extract"),
		PostgresURL:       getenv("DECA_POSTGRES_URL", ""),
		DataInRoot:        getenv("DECA_DATA_IN", "./data/in"),
		DataOutRoot:       getenv("DECA_DATA_OUT", "./data/out"),
		MetricsAddr:       getenv("DECA_METRICS_ADDR", ":9464"),
		PushgatewayURL:    getenv("DECA_PUSHGATEWAY_URL", ""),

		Workers:           getenvInt("DECA_WORKERS", 1),
		IngestMaxChildren: getenvInt("DECA_INGEST_MAX_CHILDREN", 3),
		AnswerJoin:        getenv("DECA_ANSWER_JOIN", "position"),
		KeyPrecedence:     getenv("DECA_ANSWER_KEY_PRECEDENCE", "sequential"),
		TaxonomyPath:      getenv("DECA_TAXONOMY_PATH", ""),

		LLMProviders:       getenv("DECA_LLM_PROVIDERS", "mock"),
		LLMRatePerSecond:   getenvFloat("DECA_LLM_RATE_PER_SECOND", 1),
		LLMBurst:           getenvInt("DECA_LLM_BURST", 2),
		LLMMaxRetries:      getenvInt("DECA_LLM_MAX_RETRIES", 3),
		LLMRetryBackoff:    time.Duration(getenvInt("DECA_LLM_RETRY_BACKOFF_MS", 2000)) * time.Millisecond,
		LLMBreakerFailures: getenvInt("DECA_LLM_BREAKER_FAILURES", 5),
		LLMBreakerCooldown: time.Duration(getenvInt("DECA_LLM_BREAKER_COOLDOWN_SECONDS", 30)) * time.Second,
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
