package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decaprep/internal/bank"
	"decaprep/internal/config"
	"decaprep/internal/export"
	"decaprep/internal/extractor"
	"decaprep/internal/logging"
	"decaprep/internal/metrics"
	"decaprep/internal/pdftext"
	"decaprep/internal/pipeline"
	"decaprep/internal/taxonomy"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	in := flag.String("in", cfg.DataInRoot, "directory of PDF files to extract")
	out := flag.String("out", cfg.DataOutRoot, "directory for questions.json and explanations.json")
	workers := flag.Int("workers", cfg.Workers, "documents extracted at once")
	xlsx := flag.String("xlsx", "", "also export the bank to this .xlsx file")
	taxonomyPath := flag.String("taxonomy", cfg.TaxonomyPath, "taxonomy rules file (embedded rules when empty)")
	answerJoin := flag.String("answer-join", cfg.AnswerJoin, "answer key join: position or ordinal")
	keyPrecedence := flag.String("key-precedence", cfg.KeyPrecedence, "answer key precedence: sequential or labeled")
	logLevel := flag.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	pushgateway := flag.String("pushgateway", cfg.PushgatewayURL, "push run metrics to this Prometheus pushgateway")
	metricsFile := flag.String("metrics-file", "", "write run metrics to this file in text exposition format")
	flag.Parse()

	log := logging.NewJSONLogger("deca-extract", *logLevel)

	tax, err := taxonomy.Load(*taxonomyPath)
	if err != nil {
		log.Error("load taxonomy", "error", err)
		os.Exit(1)
	}
	opts, err := extractor.ParseOptions(*answerJoin, *keyPrecedence)
	if err != nil {
		log.Error("invalid extractor options", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("deca-extract")
	runner := pipeline.New(pdftext.New(), extractor.New(tax, opts, log), log,
		pipeline.WithWorkers(*workers),
		pipeline.WithObserver(m),
	)
	_, runErr := runner.Run(ctx, *in, *out)
	exportMetrics(m, *pushgateway, *metricsFile, log)
	if runErr != nil {
		log.Error("extraction failed", "error", runErr)
		os.Exit(1)
	}

	if *xlsx != "" {
		if err := exportBank(*out, *xlsx); err != nil {
			log.Error("xlsx export failed", "path", *xlsx, "error", err)
			os.Exit(1)
		}
		log.Info("xlsx export written", "path", *xlsx)
	}
}

// exportMetrics publishes the run's counters. Failures are logged only; the
// bank files are the result of the run.
func exportMetrics(m *metrics.Metrics, gatewayURL, path string, log *slog.Logger) {
	if gatewayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Push(ctx, gatewayURL, "deca-extract"); err != nil {
			log.Warn("metrics push failed", "gateway", gatewayURL, "error", err)
		}
	}
	if path != "" {
		if err := m.WriteTextfile(path); err != nil {
			log.Warn("metrics file write failed", "path", path, "error", err)
		}
	}
}

func exportBank(dir, path string) error {
	q, err := bank.LoadQuestions(bank.QuestionsPath(dir))
	if err != nil {
		return err
	}
	e, err := bank.LoadExplanations(bank.ExplanationsPath(dir))
	if err != nil {
		return err
	}
	return export.WriteXLSX(path, q.Questions, e.Explanations)
}
