package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func contextWithSpan(ctx context.Context) (context.Context, trace.SpanContext) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, spanCtx), spanCtx
}

func TestFromContext(t *testing.T) {
	log := zap.NewExample()
	assert.Same(t, log, FromContext(WithContext(context.Background(), log)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestContextValues(t *testing.T) {
	tenantID, actorID := uuid.New(), uuid.New()
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTenantID(ctx, tenantID)
	ctx = WithActorID(ctx, actorID)
	ctx = WithIdempotencyKey(ctx, "pay-42")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, tenantID, TenantID(ctx))
	assert.Equal(t, actorID, ActorID(ctx))
	assert.Equal(t, "pay-42", IdempotencyKey(ctx))

	empty := context.Background()
	assert.Empty(t, RequestID(empty))
	assert.Equal(t, uuid.Nil, TenantID(empty))
	assert.Equal(t, uuid.Nil, ActorID(empty))
	assert.Empty(t, IdempotencyKey(empty))
}

func TestFields(t *testing.T) {
	assert.Empty(t, Fields(context.Background()))

	tenantID := uuid.New()
	ctx, spanCtx := contextWithSpan(WithTenantID(context.Background(), tenantID))
	ctx = WithIdempotencyKey(ctx, "pay-42")

	byKey := map[string]string{}
	for _, f := range Fields(ctx) {
		byKey[f.Key] = f.String
	}
	assert.Equal(t, spanCtx.TraceID().String(), byKey["trace_id"])
	assert.Equal(t, spanCtx.SpanID().String(), byKey["span_id"])
	assert.Equal(t, tenantID.String(), byKey["tenant_id"])
	assert.Equal(t, "pay-42", byKey["idempotency_key"])
	assert.NotContains(t, byKey, "actor_id")
	assert.NotContains(t, byKey, "request_id")
}

func TestContextLogger_EnrichesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	tenantID, actorID := uuid.New(), uuid.New()

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithTenantID(ctx, tenantID)
	ctx = WithActorID(ctx, actorID)

	cl := L(ctx).With(zap.String("operation", "post"))
	cl.Debug("debug")
	cl.Info("info")
	cl.Warn("warn")
	cl.Error("error")

	entries := recorded.All()
	require.Len(t, entries, 4)
	for _, e := range entries {
		fields := e.ContextMap()
		assert.Equal(t, "req-7", fields["request_id"])
		assert.Equal(t, tenantID.String(), fields["tenant_id"])
		assert.Equal(t, actorID.String(), fields["actor_id"])
		assert.Equal(t, "post", fields["operation"])
	}
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestWithLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithTenantID(context.Background(), uuid.New())

	WithLogger(ctx, zap.New(core)).Info("posted")
	require.Equal(t, 1, recorded.Len())
	assert.Contains(t, recorded.All()[0].ContextMap(), "tenant_id")

	assert.NotPanics(t, func() { WithLogger(ctx, nil).Info("dropped") })
}

func TestContextLogger_ZapWithoutFields(t *testing.T) {
	log := zap.NewExample()
	assert.Same(t, log, WithLogger(context.Background(), log).Zap())
}
