package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLogLevel converts a case-insensitive string to an [slog.Level].
//
// Accepted values:
//   - "debug" or "" → [slog.LevelDebug] (the default)
//   - "info" → [slog.LevelInfo]
//   - "warn" or "warning" → [slog.LevelWarn]
//   - "error" → [slog.LevelError]
//
// Returns an error for unrecognized values. Leading and trailing
// whitespace is trimmed before matching.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelDebug, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
	}
}

// LogWriter returns the destination for structured logs. When LOG_PATH
// names a directory, it is created recursively and log.txt inside it
// receives a copy of everything written to stdout.
func LogWriter() (io.Writer, error) {
	dir := os.Getenv("LOG_PATH")
	if dir == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "log.txt"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, f), nil
}

// NewLogger builds the process logger. The level comes from LOG_LEVEL
// when set, otherwise from the config document's logLevel field.
func NewLogger(cfgLevel string) (*slog.Logger, error) {
	level := cfgLevel
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	lv, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	w, err := LogWriter()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})), nil
}
