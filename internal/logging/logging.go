// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const logFileName = "expense.log"

type Options struct {
	// Level is one of debug|info|warn|error (default info). EXPENSE_LOG_LEVEL overrides it.
	Level string
	// Format is text|json (default text).
	Format string
	// Dir, when set, sends output to <Dir>/expense.log instead of W.
	// The TUI owns the terminal, so it always logs to a file.
	Dir string
	// W is the destination when Dir is empty (default stderr).
	W io.Writer
}

// Setup builds a logger from opts and installs it as slog's default.
// The returned close func releases the log file, if one was opened.
func Setup(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(firstNonEmpty(os.Getenv("EXPENSE_LOG_LEVEL"), opts.Level))
	if err != nil {
		return nil, nil, err
	}

	w := opts.W
	if w == nil {
		w = os.Stderr
	}
	closeFn := func() error { return nil }
	if strings.TrimSpace(opts.Dir) != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = f.Close
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		h = slog.NewTextHandler(w, handlerOpts)
	case "json":
		h = slog.NewJSONHandler(w, handlerOpts)
	default:
		_ = closeFn()
		return nil, nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
}

// Discard is a logger that drops everything; handy as a nil-safe default.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
