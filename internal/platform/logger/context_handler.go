package logger

import (
	"context"
	"log/slog"
)

// TraceIDAttr is the attribute key under which trace IDs are logged.
const TraceIDAttr = "trace_id"

// ContextHandler is a slog.Handler that adds the request trace ID found in
// the record's context to every log record. Loggers that already carry a
// trace_id attribute are left alone.
type ContextHandler struct {
	handler  slog.Handler
	hasTrace bool
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled implements the slog.Handler interface.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hasTrace := h.hasTrace
	for _, a := range attrs {
		if a.Key == TraceIDAttr {
			hasTrace = true
		}
	}
	return &ContextHandler{handler: h.handler.WithAttrs(attrs), hasTrace: hasTrace}
}

// WithGroup implements the slog.Handler interface.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name), hasTrace: h.hasTrace}
}

// Handle implements the slog.Handler interface.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.hasTrace {
		return h.handler.Handle(ctx, record)
	}
	if traceID := TraceID(ctx); traceID != "" {
		record = record.Clone()
		record.AddAttrs(slog.String(TraceIDAttr, traceID))
	}
	return h.handler.Handle(ctx, record)
}
