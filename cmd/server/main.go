package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sbaggregate/internal/api"
	"github.com/dgallion1/sbaggregate/internal/config"
	"github.com/dgallion1/sbaggregate/internal/output"
	"github.com/dgallion1/sbaggregate/internal/pathstore"
	"github.com/dgallion1/sbaggregate/internal/pipeline"
	"github.com/dgallion1/sbaggregate/internal/vocab"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	reg, err := loadRegistry(cfg.WorkflowsFile)
	if err != nil {
		log.Error("load workflows", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional sinks.
	var results *output.SQLiteStore
	if cfg.ResultsDB != "" {
		results, err = output.OpenSQLite(cfg.ResultsDB)
		if err != nil {
			log.Error("open results db", "path", cfg.ResultsDB, "error", err)
			os.Exit(1)
		}
	}
	var ps *pathstore.Client
	if cfg.PathstoreEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, reg, results, ps, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if results != nil {
			results.Close()
		}
		if ps != nil {
			ps.Close()
		}
	}()

	log.Info("starting sbaggregate",
		"port", cfg.Port,
		"workflows", len(reg.Workflows()),
		"results_db", cfg.ResultsDB != "",
		"pathstore", cfg.PathstoreEnabled(),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func loadRegistry(path string) (*vocab.Registry, error) {
	if path == "" {
		return vocab.Default()
	}
	return vocab.LoadRegistryFile(path)
}
