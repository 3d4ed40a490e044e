package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"decaprep/internal/activities"
	"decaprep/internal/config"
	"decaprep/internal/extractor"
	"decaprep/internal/logging"
	"decaprep/internal/metrics"
	"decaprep/internal/pdftext"
	"decaprep/internal/pipeline"
	"decaprep/internal/storage"
	"decaprep/internal/taxonomy"
	"decaprep/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log := logging.NewJSONLogger("deca-worker", cfg.LogLevel)

	tax, err := taxonomy.Load(cfg.TaxonomyPath)
	if err != nil {
		log.Error("load taxonomy", "error", err)
		os.Exit(1)
	}
	opts, err := extractor.ParseOptions(cfg.AnswerJoin, cfg.KeyPrecedence)
	if err != nil {
		log.Error("invalid extractor options", "error", err)
		os.Exit(1)
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   tlog.NewStructuredLogger(log),
	})
	if err != nil {
		log.Error("temporal dial", "address", cfg.TemporalAddress, "error", err)
		os.Exit(1)
	}
	defer c.Close()

	var db *storage.DB
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = storage.NewDB(ctx, cfg.PostgresURL)
		if err == nil {
			err = db.EnsureSchema(ctx)
		}
		cancel()
		if err != nil {
			log.Error("postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		log.Warn("DECA_POSTGRES_URL not set; documents are written to files only")
	}

	m := metrics.New("deca-worker")
	if cfg.MetricsAddr != "" {
		msrv := m.Server(cfg.MetricsAddr)
		go func() {
			if err := msrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = msrv.Shutdown(ctx)
		}()
	}

	runner := pipeline.New(pdftext.New(), extractor.New(tax, opts, log), log,
		pipeline.WithObserver(m),
	)

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, runner, db, log))

	log.Info("worker listening", "temporal", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "persistence", db != nil, "metrics", cfg.MetricsAddr)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}
