// Package logger configures slog for structured JSON logging and carries
// request-scoped loggers through context.
package logger
