package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates the process-wide JSON logger. The level string accepts the
// usual slog names (debug, info, warn, error) case-insensitively; anything
// unrecognized falls back to info. The app name is attached to every record.
func New(level, app string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	if app != "" {
		logger = logger.With(slog.String("app", app))
	}
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
