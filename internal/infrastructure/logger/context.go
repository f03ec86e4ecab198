package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	orderIDKey   contextKey = "order_id"
	batchIDKey   contextKey = "batch_id"
)

// WithContext returns a new context carrying logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithOrderID stores the source order id in ctx
func WithOrderID(ctx context.Context, orderID string) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

// WithBatchID stores the batch id in ctx
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey, batchID)
}

// RequestID returns the request id stored in ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// OrderID returns the source order id stored in ctx
func OrderID(ctx context.Context) string {
	id, _ := ctx.Value(orderIDKey).(string)
	return id
}

// BatchID returns the batch id stored in ctx
func BatchID(ctx context.Context) string {
	id, _ := ctx.Value(batchIDKey).(string)
	return id
}

// L returns the context logger enriched with the correlation ids found in
// ctx: trace_id and span_id from the active span, request_id, batch_id and
// order_id.
//
//	logger.L(ctx).Info("Order synced", zap.String("sales_order_id", id))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the correlation ids found in ctx to base
func Enrich(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}

	fields := make([]zap.Field, 0, 5)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	for _, kv := range []struct {
		key   string
		value string
	}{
		{"request_id", RequestID(ctx)},
		{"batch_id", BatchID(ctx)},
		{"order_id", OrderID(ctx)},
	} {
		if kv.value != "" {
			fields = append(fields, zap.String(kv.key, kv.value))
		}
	}

	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
