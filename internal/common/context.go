package common

import "context"

// correlationIDKey is the context key for the per-request correlation id.
type correlationIDKey struct{}

// WithCorrelationID returns a new context carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID extracts the correlation id from ctx, or "" when absent.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ForContext returns l tagged with the correlation id carried by ctx, if any.
func (l *Logger) ForContext(ctx context.Context) *Logger {
	if id := CorrelationID(ctx); id != "" {
		return l.WithCorrelationId(id)
	}
	return l
}
