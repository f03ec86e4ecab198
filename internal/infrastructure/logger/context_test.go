package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("stored logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(core))

		FromContext(ctx).Info("hello")

		assert.Equal(t, 1, recorded.Len())
	})

	t.Run("missing logger is a no-op", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.NotPanics(t, func() { l.Info("dropped") })
	})
}

func TestCorrelationIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, OrderID(ctx))
	assert.Empty(t, BatchID(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithBatchID(ctx, "batch-1")
	ctx = WithOrderID(ctx, "1001")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "batch-1", BatchID(ctx))
	assert.Equal(t, "1001", OrderID(ctx))
}

func TestEnrich(t *testing.T) {
	t.Run("adds ids present in context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithOrderID(WithRequestID(context.Background(), "req-1"), "1001")

		Enrich(ctx, zap.New(core)).Info("order synced")

		require.Equal(t, 1, recorded.Len())
		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "1001", fields["order_id"])
		assert.NotContains(t, fields, "batch_id")
		assert.NotContains(t, fields, "trace_id")
	})

	t.Run("adds trace and span ids of a valid span context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)

		Enrich(ctx, zap.New(core)).Info("traced")

		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})

	t.Run("empty context returns base unchanged", func(t *testing.T) {
		base := zap.NewNop()
		assert.Same(t, base, Enrich(context.Background(), base))
	})

	t.Run("nil base", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Enrich(WithBatchID(context.Background(), "b"), nil).Info("x")
		})
	})
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithBatchID(ctx, "batch-9")

	L(ctx).Info("batch started")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "batch-9", recorded.All()[0].ContextMap()["batch_id"])
}
