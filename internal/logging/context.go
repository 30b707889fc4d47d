package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Correlation carries the identifiers a log line should be tagged with.
// The zero value means "nothing known"; empty fields are never emitted.
type Correlation struct {
	WorkflowID string
	RunID      string
	NodeID     string
}

func (c Correlation) attrs() []slog.Attr {
	var out []slog.Attr
	if c.WorkflowID != "" {
		out = append(out, slog.String("workflow_id", c.WorkflowID))
	}
	if c.RunID != "" {
		out = append(out, slog.String("run_id", c.RunID))
	}
	if c.NodeID != "" {
		out = append(out, slog.String("node_id", c.NodeID))
	}
	return out
}

// FromContext returns the correlation stored in ctx, or the zero value.
func FromContext(ctx context.Context) Correlation {
	c, _ := ctx.Value(ctxKey{}).(Correlation)
	return c
}

func with(ctx context.Context, mutate func(*Correlation)) context.Context {
	c := FromContext(ctx)
	mutate(&c)
	return context.WithValue(ctx, ctxKey{}, c)
}

// WithWorkflowID returns a context with the workflow ID set.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return with(ctx, func(c *Correlation) { c.WorkflowID = id })
}

// WithRunID returns a context with the run ID set.
func WithRunID(ctx context.Context, id string) context.Context {
	return with(ctx, func(c *Correlation) { c.RunID = id })
}

// WithNodeID returns a context with the node ID set.
func WithNodeID(ctx context.Context, id string) context.Context {
	return with(ctx, func(c *Correlation) { c.NodeID = id })
}

// LogWith returns a logger enriched with the context's correlation IDs.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range FromContext(ctx).attrs() {
		logger = logger.With(a)
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, stamping every record with
// the correlation IDs found in the call's context. Use with
// slog.New(NewCorrelationHandler(inner)) and logger.InfoContext(ctx, ...).
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := FromContext(ctx).attrs(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
