package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records posting engine activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	logger *zap.Logger

	postedTotal      *Counter
	reversedTotal    *Counter
	replayTotal      *Counter
	failureTotal     *Counter
	operationSeconds *Histogram

	outboxEntries *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	outboxProvider OutboxStatsProvider
}

// OutboxStatsProvider reports outbox backlog per status for periodic collection.
// The outbox repository satisfies it through a small adapter in the wiring layer.
type OutboxStatsProvider interface {
	OutboxCounts(ctx context.Context) (map[string]int64, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter          metric.Meter
	Logger         *zap.Logger
	OutboxProvider OutboxStatsProvider
}

// Ledger metric attribute keys
var (
	AttrOperation   = attribute.Key("operation")
	AttrVoucherType = attribute.Key("voucher_type")
	AttrErrorCode   = attribute.Key("error_code")
	AttrStatus      = attribute.Key("status")
)

// NewLedgerMetrics creates the ledger instruments on the given meter.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		logger:         logger,
		stopChan:       make(chan struct{}),
		outboxProvider: cfg.OutboxProvider,
	}

	var err error
	if lm.postedTotal, err = NewCounter(cfg.Meter,
		"ledger_voucher_posted_total", "Vouchers posted", "{vouchers}"); err != nil {
		return nil, err
	}
	if lm.reversedTotal, err = NewCounter(cfg.Meter,
		"ledger_voucher_reversed_total", "Vouchers reversed", "{vouchers}"); err != nil {
		return nil, err
	}
	if lm.replayTotal, err = NewCounter(cfg.Meter,
		"ledger_idempotent_replay_total", "Requests answered from a stored idempotency key", "{requests}"); err != nil {
		return nil, err
	}
	if lm.failureTotal, err = NewCounter(cfg.Meter,
		"ledger_operation_failure_total", "Failed ledger operations by error code", "{requests}"); err != nil {
		return nil, err
	}
	if lm.operationSeconds, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "ledger_operation_duration_seconds",
		Description: "Duration of successful ledger operations",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.outboxEntries, err = NewGauge(cfg.Meter,
		"ledger_outbox_entries", "Outbox entries by status", "{entries}"); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordPosted counts a voucher that reached POSTED.
func (lm *LedgerMetrics) RecordPosted(ctx context.Context, voucherType string) {
	if lm == nil {
		return
	}
	lm.postedTotal.Inc(ctx, AttrVoucherType.String(voucherType))
}

// RecordReversed counts a voucher that was reversed.
func (lm *LedgerMetrics) RecordReversed(ctx context.Context, voucherType string) {
	if lm == nil {
		return
	}
	lm.reversedTotal.Inc(ctx, AttrVoucherType.String(voucherType))
}

// RecordIdempotentReplay counts a request that returned a previously committed result.
func (lm *LedgerMetrics) RecordIdempotentReplay(ctx context.Context, operation string) {
	if lm == nil {
		return
	}
	lm.replayTotal.Inc(ctx, AttrOperation.String(operation))
}

// RecordFailure counts a failed operation by its error code.
func (lm *LedgerMetrics) RecordFailure(ctx context.Context, operation, code string) {
	if lm == nil {
		return
	}
	lm.failureTotal.Inc(ctx, AttrOperation.String(operation), AttrErrorCode.String(code))
}

// RecordDuration records how long a successful operation took.
func (lm *LedgerMetrics) RecordDuration(ctx context.Context, operation string, d time.Duration) {
	if lm == nil {
		return
	}
	lm.operationSeconds.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// StartPeriodicCollection samples the outbox backlog every interval (default: 1 minute).
// It is non-blocking; call Stop to end collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if lm == nil || lm.outboxProvider == nil {
		return
	}
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectOutbox(ctx)
	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			lm.collectOutbox(ctx)
		}
	}
}

func (lm *LedgerMetrics) collectOutbox(ctx context.Context) {
	counts, err := lm.outboxProvider.OutboxCounts(ctx)
	if err != nil {
		lm.logger.Warn("Failed to collect outbox counts", zap.Error(err))
		return
	}
	for status, n := range counts {
		lm.outboxEntries.Record(ctx, n, AttrStatus.String(status))
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	if lm == nil {
		return
	}
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
