// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// Setup returns a logger writing to w: JSON lines when json is set,
// human-readable text otherwise.
func Setup(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SetupDefault installs the logger as the slog default. A nil writer means os.Stdout.
func SetupDefault(w io.Writer, level slog.Level, json bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w, level, json)
	slog.SetDefault(logger)
	return logger
}
