package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool          // Enable database tracing
	LogFullSQL      bool          // Include query variables in spans (dev only)
	SlowQueryThresh time.Duration // Threshold for marking queries as slow (default: 200ms)
	DBSystem        string        // Database system name (default: "postgresql")
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingConfigFrom maps the application settings onto the tracing config.
// Database tracing needs telemetry itself to be enabled.
func DBTracingConfigFrom(tel config.TelemetryConfig, db config.DatabaseConfig) DBTracingConfig {
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = tel.Enabled && tel.DBTraceEnabled
	cfg.LogFullSQL = tel.DBLogFullSQL
	if tel.DBSlowQueryThresh > 0 {
		cfg.SlowQueryThresh = tel.DBSlowQueryThresh
	}
	if db.Driver == "sqlite" {
		cfg.DBSystem = "sqlite"
	}
	return cfg
}

// DBTracingPlugin wraps the otelgorm plugin with slow query and row lock annotations.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm registers otelgorm and the annotation callbacks on db.
// It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("ledger_trace:before_create", markQueryStart) },
		func() error { return cb.Query().Before("gorm:query").Register("ledger_trace:before_query", markQueryStart) },
		func() error { return cb.Update().Before("gorm:update").Register("ledger_trace:before_update", markQueryStart) },
		func() error { return cb.Delete().Before("gorm:delete").Register("ledger_trace:before_delete", markQueryStart) },
		func() error { return cb.Row().Before("gorm:row").Register("ledger_trace:before_row", markQueryStart) },
		func() error { return cb.Raw().Before("gorm:raw").Register("ledger_trace:before_raw", markQueryStart) },
		func() error { return cb.Create().After("gorm:create").Register("ledger_trace:after_create", p.annotate) },
		func() error { return cb.Query().After("gorm:query").Register("ledger_trace:after_query", p.annotate) },
		func() error { return cb.Update().After("gorm:update").Register("ledger_trace:after_update", p.annotate) },
		func() error { return cb.Delete().After("gorm:delete").Register("ledger_trace:after_delete", p.annotate) },
		func() error { return cb.Row().After("gorm:row").Register("ledger_trace:after_row", p.annotate) },
		func() error { return cb.Raw().After("gorm:raw").Register("ledger_trace:after_raw", p.annotate) },
	}
	for _, register := range steps {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// annotate adds row counts, lock usage, errors and slow query markers to the current span.
func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if _, locked := db.Statement.Clauses["FOR"]; locked {
		span.SetAttributes(attribute.Bool("db.row_lock", true))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if started, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(started)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime returns a context carrying the current time as the query start.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}
