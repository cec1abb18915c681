package logger

import (
	"context"
	"log/slog"
)

type fieldsKey struct{}

// With returns a copy of ctx carrying extra log fields. Request middleware
// tags request_id, actor_id and role this way.
func With(ctx context.Context, fields ...any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	prev := Fields(ctx)
	merged := make([]any, 0, len(prev)+len(fields))
	merged = append(append(merged, prev...), fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns the log fields carried by ctx.
func Fields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fieldsKey{}).([]any)
	return f
}

// For returns base tagged with the fields carried by ctx. A nil base falls
// back to the process logger.
func For(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = LoggerWrapper()
	}
	if f := Fields(ctx); len(f) > 0 {
		return base.With(f...)
	}
	return base
}

// From is For with the process logger.
func From(ctx context.Context) *slog.Logger {
	return For(ctx, nil)
}
