package slogutil

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// levelSilent is above every standard level.
const levelSilent = slog.Level(100)

// NewLogger creates a logger using Handler.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger returns a logger that drops everything. Used by tests.
func NewDiscardLogger() *slog.Logger {
	return NewLogger(io.Discard, levelSilent)
}

// LevelFromString parses debug, info, warn or error (case-insensitive).
// Anything else is info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// LevelFromVerbosity maps -v counts to a level: none is warn, -v is info,
// -vv and above is debug. quiet silences everything.
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	switch {
	case quiet:
		return levelSilent
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// FileOptions configures the optional log file.
type FileOptions struct {
	Path       string
	Level      slog.Level
	MaxSize    string
	MaxBackups int
}

// Setup builds the CLI logger: console output at consoleLevel, teed into a
// rotating log file when file.Path is set. The returned closer is never nil.
func Setup(console io.Writer, consoleLevel slog.Level, file FileOptions) (*slog.Logger, io.Closer, error) {
	consoleHandler := NewHandler(console, &slog.HandlerOptions{Level: consoleLevel})
	if file.Path == "" {
		return slog.New(consoleHandler), io.NopCloser(nil), nil
	}

	rf, err := OpenRotatingFile(file.Path, ParseSize(file.MaxSize), file.MaxBackups)
	if err != nil {
		return slog.New(consoleHandler), io.NopCloser(nil), err
	}
	fileHandler := NewHandler(rf, &slog.HandlerOptions{Level: file.Level})
	return slog.New(&teeHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rf, nil
}

type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: out}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		out[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: out}
}
