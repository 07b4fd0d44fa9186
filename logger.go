package x4grid

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rlibre/x4grid/record"
)

// Logger wraps slog.Logger with grid-specific helpers so operations log
// with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler logs
// text at Info to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithID tags the logger with a record id.
func (l *Logger) WithID(id record.Value) *Logger {
	return &Logger{Logger: l.Logger.With("id", id.String())}
}

// WithField tags the logger with a field name.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{Logger: l.Logger.With("field", name)}
}

// WithCount tags the logger with a record count.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogAppend logs an append.
func (l *Logger) LogAppend(ctx context.Context, id record.Value, err error) {
	l.logMutation(ctx, "append", id, err)
}

// LogUpdate logs an update.
func (l *Logger) LogUpdate(ctx context.Context, id record.Value, err error) {
	l.logMutation(ctx, "update", id, err)
}

// LogDelete logs a delete.
func (l *Logger) LogDelete(ctx context.Context, id record.Value, err error) {
	l.logMutation(ctx, "delete", id, err)
}

func (l *Logger) logMutation(ctx context.Context, op string, id record.Value, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed", "id", id.String(), "error", err)
		return
	}
	l.DebugContext(ctx, op+" completed", "id", id.String())
}

// LogReset logs a wholesale replacement of the record set.
func (l *Logger) LogReset(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reset failed", "count", count, "error", err)
		return
	}
	l.InfoContext(ctx, "reset completed", "count", count)
}

// LogLoad logs a source load.
func (l *Logger) LogLoad(ctx context.Context, source string, count int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed", "source", source, "elapsed", elapsed, "error", err)
		return
	}
	l.InfoContext(ctx, "load completed", "source", source, "count", count, "elapsed", elapsed)
}

// LogQuery logs a filter or sort change on the grid's view.
func (l *Logger) LogQuery(ctx context.Context, kind, spec string, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, kind+" rejected", "spec", spec, "error", err)
		return
	}
	l.DebugContext(ctx, kind+" applied", "spec", spec, "count", count)
}
