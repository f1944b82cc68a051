package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/hlzconv/internal/api"
	"github.com/dgallion1/hlzconv/internal/archive"
	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/convert"
	"github.com/dgallion1/hlzconv/internal/mathrender"
	"github.com/dgallion1/hlzconv/internal/pipeline"
	"github.com/dgallion1/hlzconv/internal/refsource"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotenv(".env"); err != nil {
		log.Error("invalid .env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize collaborators.
	stats := mathrender.NewStats(time.Hour)
	opts, err := convert.FromConfig(cfg, stats)
	if err != nil {
		log.Error("invalid conversion settings", "error", err)
		os.Exit(1)
	}
	if opts.Renderer == nil {
		log.Warn("MATH_RENDERER_URL not set, math will not be rendered")
	}

	var store *archive.Store
	var pipelineArchive pipeline.Archiver
	var apiArchive api.Archive
	if cfg.DatabaseURL != "" {
		store, err = archive.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("archive unavailable", "error", err)
			os.Exit(1)
		}
		if err := store.Initialize(ctx); err != nil {
			log.Error("archive schema", "error", err)
			os.Exit(1)
		}
		pipelineArchive, apiArchive = store, store
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.Settings{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, opts, pipelineArchive, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, apiArchive, log, cfg)

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

		if c, ok := opts.Renderer.(*mathrender.Client); ok {
			c.Close()
		}
		if store != nil {
			store.Close()
		}
	}()

	log.Info("starting hlzconv",
		"port", cfg.Port,
		"workers", cfg.WorkerCount,
		"archive", store != nil,
		"extractor", refsource.Describe(opts.Extractor),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
