package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decaprep/internal/api"
	"decaprep/internal/bank"
	"decaprep/internal/config"
	"decaprep/internal/logging"
	"decaprep/internal/metrics"
	"decaprep/internal/providers"
	"decaprep/internal/storage"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	log := logging.NewJSONLogger("deca-api", cfg.LogLevel)
	m := metrics.New("deca-api")

	pm, err := providers.NewManager(cfg, m, log)
	if err != nil {
		log.Error("llm providers", "error", err)
		os.Exit(1)
	}
	deps := api.Deps{
		Bank:    bank.NewCache(cfg.DataOutRoot),
		LLM:     pm,
		Metrics: m,
		Log:     log,
	}

	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err := storage.NewDB(ctx, cfg.PostgresURL)
		if err == nil {
			err = db.EnsureSchema(ctx)
		}
		cancel()
		if err != nil {
			log.Error("postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		deps.Documents = storage.NewDocumentRepo(db)
		deps.Audit = storage.NewLLMAuditRepo(db)
	}

	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress, Logger: tlog.NewStructuredLogger(log)})
	if err != nil {
		log.Warn("temporal unavailable; ingest endpoints disabled", "address", cfg.TemporalAddress, "error", err)
	} else {
		defer tc.Close()
		deps.Ingest = api.TemporalIngest{Client: tc, TaskQueue: cfg.TemporalTaskQueue}
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("api listening", "addr", cfg.APIAddr, "llm_providers", cfg.LLMProviders, "bank_dir", cfg.DataOutRoot)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("api stopped", "error", err)
		os.Exit(1)
	}
}
