package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps LOG_LEVEL values onto slog levels. Unknown values return
// fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	}
	return fallback
}

// New builds a text or json logger writing to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs the default logger from LOG_LEVEL and LOG_FORMAT.
// The relay passes slog.LevelInfo; the CLI passes slog.LevelError so the
// terminal UI stays clean.
func Init(defaultLevel slog.Level) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"), defaultLevel)
	logger := New(os.Stderr, level, os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	return logger
}
