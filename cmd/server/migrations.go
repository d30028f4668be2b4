package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/maximus-ms/enbot/internal/config"
)

// migrationsDir is the name of the directory holding the goose SQL
// migrations, relative to the project root.
const migrationsDir = "migrations"

// migrationTableName is the table goose uses to track applied versions.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

// Printf forwards goose progress messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf forwards goose error messages to slog.Error. Unlike the standard
// Fatalf behavior it does NOT call os.Exit; the error propagates back to
// main, which handles the exit consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// configureGoose points goose at slog, the version table and the postgres
// dialect.
func configureGoose() error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// runMigrations executes one migration command against the configured
// database and returns when it completes. Supported commands are up, down,
// status and create (the latter takes the new migration's name).
func runMigrations(cfg *config.Config, command, name string) error {
	logger := slog.Default().With("component", "migrations", "command", command)

	if err := configureGoose(); err != nil {
		return err
	}

	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	// create only writes a template file, no database needed
	if command == "create" {
		if name == "" {
			return fmt.Errorf("migration name is required for 'create' (use -name)")
		}
		logger.Info("Creating new migration", "name", name, "dir", dir)
		return goose.Create(nil, dir, name, "sql")
	}

	logger.Info("Connecting to database for migration",
		"url", maskDatabaseURL(cfg.Database.URL),
		"dir", dir)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("Error closing database connection", "error", closeErr)
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	start := time.Now()
	switch command {
	case "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "status":
		err = goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q (expected up, down, status or create)", command)
	}
	if err != nil {
		return fmt.Errorf("migration command %q failed: %w", command, err)
	}

	logger.Info("Migration command completed",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// migrateUp applies all pending migrations on the given handle. It runs on
// every startup, so it must be a no-op on an up-to-date schema.
func migrateUp(db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(); err != nil {
		return err
	}

	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	after, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if after != before {
		logger.Info("Applied pending migrations",
			"from_version", before,
			"to_version", after)
	} else {
		logger.Info("Database schema is up to date", "version", after)
	}
	return nil
}

// resolveMigrationsDir locates the migrations directory. The working
// directory is tried first, then its ancestors up to the directory holding
// go.mod, so the server can be started from a subdirectory during
// development.
func resolveMigrationsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, migrationsDir)
		if directoryExists(candidate) {
			return candidate, nil
		}

		// Stop above the module root.
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("migrations directory %q not found from %s", migrationsDir, cwd)
}

// directoryExists reports whether path exists and is a directory.
func directoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	if parsedURL.User != nil {
		parsedURL.User = url.UserPassword(parsedURL.User.Username(), "****")
		return parsedURL.String()
	}

	return dbURL
}
