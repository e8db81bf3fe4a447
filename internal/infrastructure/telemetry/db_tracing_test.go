package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm/clause"
)

func TestDBTracingConfigFrom(t *testing.T) {
	tests := []struct {
		name    string
		tel     config.TelemetryConfig
		db      config.DatabaseConfig
		enabled bool
		system  string
	}{
		{"telemetry off", config.TelemetryConfig{DBTraceEnabled: true}, config.DatabaseConfig{Driver: "postgres"}, false, "postgresql"},
		{"db tracing off", config.TelemetryConfig{Enabled: true}, config.DatabaseConfig{Driver: "postgres"}, false, "postgresql"},
		{"both on", config.TelemetryConfig{Enabled: true, DBTraceEnabled: true}, config.DatabaseConfig{Driver: "postgres"}, true, "postgresql"},
		{"sqlite", config.TelemetryConfig{Enabled: true, DBTraceEnabled: true}, config.DatabaseConfig{Driver: "sqlite"}, true, "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DBTracingConfigFrom(tt.tel, tt.db)
			assert.Equal(t, tt.enabled, cfg.Enabled)
			assert.Equal(t, tt.system, cfg.DBSystem)
			assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
		})
	}

	cfg := DBTracingConfigFrom(config.TelemetryConfig{DBSlowQueryThresh: time.Second, DBLogFullSQL: true}, config.DatabaseConfig{})
	assert.Equal(t, time.Second, cfg.SlowQueryThresh)
	assert.True(t, cfg.LogFullSQL)
}

func TestDBTracingPlugin_DisabledSkipsRegistration(t *testing.T) {
	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{}, zaptest.NewLogger(t))

	require.NoError(t, plugin.RegisterOtelGorm(db))
	assert.Nil(t, db.Callback().Query().Get("ledger_trace:after_query"))
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour}, nil)
	require.NoError(t, plugin.registerCallbacks(db))

	ctx, span := tp.Tracer("test").Start(context.Background(), "balance.lock")
	var rows []metricsRow
	require.NoError(t, db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Find(&rows).Error)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.True(t, attrs["db.row_lock"].AsBool())
	assert.Equal(t, "ledger_balances", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(0), attrs["db.rows_affected"].AsInt64())
	assert.NotContains(t, attrs, attribute.Key("db.slow_query"))
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	db := openSQLite(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond}, nil)
	require.NoError(t, plugin.registerCallbacks(db))

	ctx, span := tp.Tracer("test").Start(context.Background(), "balance.get")
	var rows []metricsRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	recorded := sr.Ended()[0]
	var slow bool
	for _, kv := range recorded.Attributes() {
		if kv.Key == "db.slow_query" {
			slow = kv.Value.AsBool()
		}
	}
	assert.True(t, slow)
	require.NotEmpty(t, recorded.Events())
	assert.Equal(t, "slow_query_warning", recorded.Events()[0].Name)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{}, nil)
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
}
