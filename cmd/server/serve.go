package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rohits-web03/dnastore/internal/api"
	"github.com/rohits-web03/dnastore/internal/api/handlers"
	"github.com/rohits-web03/dnastore/internal/metrics"
	"github.com/rohits-web03/dnastore/internal/repositories"
	"github.com/rohits-web03/dnastore/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if port := cmd.String("port"); port != "" {
		cfg.Port = port
	}

	db, err := repositories.Open(cfg.Database, logger.With("component", "db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateAll(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if cfg.Batch.ReconcileStale {
		n, err := db.FailStaleBatches(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Warn("marked batches left initiated by a previous run as failed", "count", n)
		}
	}

	m := metrics.New()
	users := repositories.NewUserRepository(db)
	seqs := repositories.NewDNARepository(db, users)

	opts := tasks.Options{
		Workers:   cfg.Batch.Workers,
		QueueSize: cfg.Batch.QueueSize,
		Metrics:   m,
		Logger:    logger,
	}
	var linker handlers.ArchiveLinker
	if archive := repositories.NewArchive(cfg.R2); archive != nil {
		opts.Archive = archive
		linker = archive
		logger.Info("batch archive enabled", "bucket", cfg.R2.BucketName)
	}
	coordinator := tasks.NewCoordinator(db, seqs, opts)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Users:     users,
			Sequences: seqs,
			Batches:   db,
			Submitter: coordinator,
			Archive:   linker,
			Metrics:   m,
			Logger:    logger,
			Cors:      cfg.CorsConfig(),
			RateLimit: cfg.RateLimit,
		}),
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// workers stop only after the server has shut down
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return coordinator.Run(workerCtx)
	})
	g.Go(func() error {
		logger.Info("starting dnastore server", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopWorkers()

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
