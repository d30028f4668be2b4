package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/maximus-ms/enbot/internal/config"
)

// parseLevel maps a configured level name to a slog.Level, case-insensitively.
// ok reports whether the name was recognized; unknown names get info.
func parseLevel(name string) (level slog.Level, ok bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Setup builds the application logger from the logging configuration and
// installs it as the process default, so package-level slog calls and
// loggers pulled from bare contexts all share it.
//
// Output is one JSON object per line on stdout for log collectors. An
// unrecognized level falls back to info with a warning on stderr rather
// than failing startup.
func Setup(cfg config.LoggingConfig) (*slog.Logger, error) {
	level, ok := parseLevel(cfg.Level)
	if !ok {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Warn(
			"invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, nil
}
