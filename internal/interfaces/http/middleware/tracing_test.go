package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a recording tracer provider for the test.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/vouchers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vouchers/1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracingWithConfig_NamesSpanAfterRoute(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.GET("/vouchers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vouchers/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	findSpan(t, sr, "GET /vouchers/:id")
}

func TestLedgerSpanAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID := uuid.New()
	actorID := uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing(), LedgerContext(), LedgerSpanAttributes())
	router.POST("/vouchers/:id/post", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/vouchers/1/post", nil)
	req.Header.Set(RequestIDHeader, "req-trace-1")
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set(HeaderActorID, actorID.String())
	req.Header.Set(HeaderIdempotencyKey, "post-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	span := findSpan(t, sr, "POST /vouchers/:id/post")

	expected := map[string]string{
		"request_id":      "req-trace-1",
		"tenant_id":       tenantID.String(),
		"actor_id":        actorID.String(),
		"idempotency_key": "post-1",
	}
	for key, want := range expected {
		v, ok := spanAttr(span, key)
		if assert.True(t, ok, "missing span attribute %s", key) {
			assert.Equal(t, want, v.AsString())
		}
	}
}

func TestLedgerSpanAttributes_WithoutSpan(t *testing.T) {
	router := gin.New()
	router.Use(LedgerSpanAttributes())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantError  bool
		wantStatus bool
	}{
		{"success", http.StatusCreated, false, false},
		{"period closed", http.StatusLocked, false, true},
		{"unbalanced", http.StatusUnprocessableEntity, false, true},
		{"infrastructure", http.StatusInternalServerError, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(Tracing(), SpanErrorMarker())
			router.POST("/vouchers", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/vouchers", nil))

			span := findSpan(t, sr, "POST /vouchers")
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, span.Status().Code)
			}
			v, ok := spanAttr(span, "http.status_code")
			assert.Equal(t, tt.wantStatus, ok)
			if ok {
				assert.Equal(t, int64(tt.status), v.AsInt64())
			}
		})
	}
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.Equal(t, "erp-ledger", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
}
