package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldMutationID identifies a queued mutation.
	FieldMutationID = "mutation_id"
	// FieldMutationType is the closed mutation type tag (createOrder, updateStock, ...).
	FieldMutationType = "mutation_type"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to an operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	mutationKey contextKey = iota
	correlationKey
)

type mutationRef struct {
	id   string
	kind string
}

// WithMutation tags ctx with the mutation being processed.
func WithMutation(ctx context.Context, id, kind string) context.Context {
	return context.WithValue(ctx, mutationKey, mutationRef{id: id, kind: kind})
}

// WithCorrelationID tags ctx with a request or drain-pass identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if ref, ok := ctx.Value(mutationKey).(mutationRef); ok {
		fields = append(fields, slog.String(FieldMutationID, ref.id), slog.String(FieldMutationType, ref.kind))
	}
	if id, ok := ctx.Value(correlationKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
