package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const logFileName = "learneasyd.log"

func parseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// setupLogging installs the default logger: JSON lines in
// <baseDir>/logs/learneasyd.log, plus text on stderr when console is set.
// The returned file must be closed by the caller.
func setupLogging(baseDir string, level slog.Level, console bool) (*os.File, error) {
	logPath := filepath.Join(baseDir, "logs", logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var stderr io.Writer
	if console {
		stderr = os.Stderr
	}
	slog.SetDefault(slog.New(newLogHandler(logFile, stderr, level)))
	return logFile, nil
}

// newLogHandler builds the daemon handler. A nil console skips the text
// output.
func newLogHandler(file, console io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	fileHandler := slog.NewJSONHandler(file, opts)
	if console == nil {
		return fileHandler
	}
	return fanout{fileHandler, slog.NewTextHandler(console, opts)}
}

// fanout sends each record to every handler that accepts its level
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to all handlers even if one fails and joins the errors.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
