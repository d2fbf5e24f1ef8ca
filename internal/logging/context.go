package logging

import "context"

type ctxKey string

const ctxCorrelationID ctxKey = "correlation_id"

// WithCorrelationID stores the request's correlation id for downstream logging
// and emitted events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxCorrelationID, id)
}

func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxCorrelationID).(string); ok {
		return v
	}
	return ""
}
