// Package observability carries per-dispatch logging context through context.Context.
package observability

import (
	"context"
	"log/slog"
	"strconv"

	"git.home.luguber.info/inful/layoutstate/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	Document string
	Command  string
	Origin   string
	Revision uint64
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithDocument adds the document id to the context.
func WithDocument(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.Document = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithCommand adds the command name being dispatched to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	lc := extractLogContext(ctx)
	lc.Command = command
	return context.WithValue(ctx, logContextKey, lc)
}

// WithOrigin adds the mutation origin (user, replay, external) to the context.
func WithOrigin(ctx context.Context, origin string) context.Context {
	lc := extractLogContext(ctx)
	lc.Origin = origin
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRevision adds the store revision the dispatch started from.
func WithRevision(ctx context.Context, revision uint64) context.Context {
	lc := extractLogContext(ctx)
	lc.Revision = revision
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.Document != "" {
		attrs = append(attrs, logfields.Document(lc.Document))
	}
	if lc.Command != "" {
		attrs = append(attrs, logfields.Command(lc.Command))
	}
	if lc.Origin != "" {
		attrs = append(attrs, logfields.Origin(lc.Origin))
	}
	if lc.Revision > 0 {
		attrs = append(attrs, logfields.Revision(lc.Revision))
	}
	return attrs
}

// Logger wraps a slog.Logger and prepends the context's LogContext attributes.
type Logger struct {
	base *slog.Logger
}

// NewLogger returns a context-aware logger; nil falls back to slog.Default().
func NewLogger(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return Logger{base: base}
}

// Slog returns the underlying logger.
func (l Logger) Slog() *slog.Logger { return l.base }

func (l Logger) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	all := append(getLogAttrs(ctx), attrs...)
	l.base.LogAttrs(ctx, level, msg, all...)
}

// Info logs an info message with context information.
func (l Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs...)
}

// Warn logs a warning message with context information.
func (l Logger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs an error message with context information.
func (l Logger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs...)
}

// Debug logs a debug message with context information.
func (l Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// HasContextValue checks if a specific context value is set.
func HasContextValue(ctx context.Context, field string) bool {
	lc := extractLogContext(ctx)
	switch field {
	case logfields.KeyDocument:
		return lc.Document != ""
	case logfields.KeyCommand:
		return lc.Command != ""
	case logfields.KeyOrigin:
		return lc.Origin != ""
	case logfields.KeyRevision:
		return lc.Revision > 0
	default:
		return false
	}
}

// String renders the context compactly for diagnostics.
func (lc LogContext) String() string {
	return lc.Document + "/" + lc.Command + "@" + strconv.FormatUint(lc.Revision, 10)
}
