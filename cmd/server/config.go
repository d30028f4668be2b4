package main

import (
	"fmt"
	"log/slog"

	"github.com/maximus-ms/enbot/internal/config"
)

// loadAppConfig loads the application configuration from environment
// variables and an optional config file. An explicit path makes the file
// mandatory; otherwise a config.yaml next to the binary is picked up when
// present. Returns the loaded config and any loading error.
func loadAppConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log basic configuration details after successful loading
	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level)

	// Log additional configuration details at debug level if available
	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true)
	}
	if cfg.Auth.JWTSecret != "" {
		slog.Debug("Auth configuration", "jwt_secret_present", true)
	}
	if cfg.Generation.GeminiAPIKey != "" {
		slog.Debug("Generation configuration", "api_key_present", true)
	}

	return cfg, nil
}
