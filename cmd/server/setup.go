package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dnastore/internal/config"
	"github.com/rohits-web03/dnastore/internal/repositories"
	"github.com/rohits-web03/dnastore/internal/utils"
	"github.com/urfave/cli/v3"
)

// setup loads configuration with command-line overrides and builds the process logger.
func setup(cmd *cli.Command) (config.Config, *log.Logger, error) {
	cfg, envLoaded, err := config.Load(config.LoadOptions{
		EnvFile:    cmd.String("env-file"),
		ConfigFile: cmd.String("config"),
	})
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	logger, err := utils.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	if !envLoaded {
		logger.Debug("no env file found, using process environment")
	}
	return cfg, logger, nil
}

// check pings the database, reports row counts and probes the archive bucket.
func check(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	db, err := repositories.Open(cfg.Database, logger.With("component", "db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	users := repositories.NewUserRepository(db)
	seqs := repositories.NewDNARepository(db, users)
	nUsers, err := users.Count(ctx)
	if err != nil {
		return err
	}
	nSeqs, err := seqs.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("database reachable", "users", nUsers, "sequences", nSeqs)

	archive := repositories.NewArchive(cfg.R2)
	if archive == nil {
		logger.Info("batch archive disabled")
		return nil
	}
	if _, err := archive.Exists(ctx, 0); err != nil {
		return fmt.Errorf("probe archive bucket %s: %w", cfg.R2.BucketName, err)
	}
	logger.Info("batch archive reachable", "bucket", cfg.R2.BucketName)
	return nil
}
