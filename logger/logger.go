// Package logger carries slog attributes through a context, so the
// parser and evaluator can tag every record in a pass with the post or
// rule being worked on without threading a logger around.
package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// ContextHandler wraps a base [slog.Handler] and appends any attributes
// stashed in the record's context by [Ctx].
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps base in a ContextHandler.
func NewContextHandler(base slog.Handler) ContextHandler {
	return ContextHandler{Handler: base}
}

// Handle implements [slog.Handler].
func (h ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		record.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, record)
}

// Ctx returns a context whose log records will carry the given attributes.
// Attributes accumulate across calls.
func Ctx(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(ctxKey{}).([]slog.Attr)

	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)

	return context.WithValue(ctx, ctxKey{}, merged)
}
