package util

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process logger. Development gets human-readable text
// at debug level; everything else gets JSON at info. LOG_LEVEL overrides the
// level in either mode.
func NewLogger(env, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if lvl, ok := parseLevel(os.Getenv("LOG_LEVEL")); ok {
		opts.Level = lvl
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
