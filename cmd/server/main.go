// Package main implements the entry point for the EnBot API server,
// a vocabulary learning backend: user dictionaries, priority-driven
// learning cycles, spaced repetition reviews and LLM-backed word
// enrichment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/maximus-ms/enbot/internal/config"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, status, create) and exit")
	migrationName := flag.String("name", "",
		"name of the new migration, used with -migrate create")
	configPath := flag.String("config", "",
		"path to a config file (default: config.yaml in the working directory)")
	flag.Parse()

	cfg, err := loadAppConfig(*configPath)
	if err != nil {
		// The logger is configured from the config, so this failure can
		// only go to the standard logger.
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	if *migrateCmd != "" {
		if err := runMigrations(cfg, *migrateCmd, *migrationName); err != nil {
			logger.Error("Migration failed", "command", *migrateCmd, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

// run brings the server up: database, pending migrations, dependency
// wiring, HTTP serving. It returns when the server has shut down.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	// Apply pending migrations so a fresh database is usable without a
	// separate deploy step. Manual control stays available via -migrate.
	if err := migrateUp(db, logger); err != nil {
		closeDatabase(db, logger)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		closeDatabase(db, logger)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
