package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type stubOutboxStats struct {
	counts map[string]int64
	err    error
	calls  atomic.Int32
}

func (s *stubOutboxStats) OutboxCounts(context.Context) (map[string]int64, error) {
	s.calls.Add(1)
	return s.counts, s.err
}

func TestNewLedgerMetrics_RequiresMeter(t *testing.T) {
	_, err := NewLedgerMetrics(LedgerMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Equal(t, "NewLedgerMetrics: meter cannot be nil", err.Error())
}

func TestLedgerMetrics_Counters(t *testing.T) {
	provider, reader := newTestMeterProvider(t)
	lm, err := NewLedgerMetrics(LedgerMetricsConfig{Meter: provider.Meter("ledger")})
	require.NoError(t, err)

	ctx := context.Background()
	lm.RecordPosted(ctx, "JOURNAL")
	lm.RecordPosted(ctx, "JOURNAL")
	lm.RecordPosted(ctx, "PAYMENT")
	lm.RecordReversed(ctx, "JOURNAL")
	lm.RecordIdempotentReplay(ctx, "post")
	lm.RecordFailure(ctx, "post", "UNBALANCED")
	lm.RecordFailure(ctx, "reverse", "ALREADY_REVERSED")

	assert.Equal(t, int64(2), sumFor(t, reader, "ledger_voucher_posted_total", AttrVoucherType.String("JOURNAL")))
	assert.Equal(t, int64(1), sumFor(t, reader, "ledger_voucher_posted_total", AttrVoucherType.String("PAYMENT")))
	assert.Equal(t, int64(1), sumFor(t, reader, "ledger_voucher_reversed_total", AttrVoucherType.String("JOURNAL")))
	assert.Equal(t, int64(1), sumFor(t, reader, "ledger_idempotent_replay_total", AttrOperation.String("post")))
	assert.Equal(t, int64(1), sumFor(t, reader, "ledger_operation_failure_total", AttrErrorCode.String("UNBALANCED")))
	assert.Equal(t, int64(1), sumFor(t, reader, "ledger_operation_failure_total", AttrErrorCode.String("ALREADY_REVERSED")))
}

func TestLedgerMetrics_RecordDuration(t *testing.T) {
	provider, reader := newTestMeterProvider(t)
	lm, err := NewLedgerMetrics(LedgerMetricsConfig{Meter: provider.Meter("ledger")})
	require.NoError(t, err)

	lm.RecordDuration(context.Background(), "post", 20*time.Millisecond)

	m, ok := findMetric(t, reader, "ledger_operation_duration_seconds")
	require.True(t, ok)
	hist := m.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.02, hist.DataPoints[0].Sum, 1e-9)
}

func TestLedgerMetrics_NilIsNoop(t *testing.T) {
	var lm *LedgerMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		lm.RecordPosted(ctx, "JOURNAL")
		lm.RecordReversed(ctx, "JOURNAL")
		lm.RecordIdempotentReplay(ctx, "post")
		lm.RecordFailure(ctx, "post", "X")
		lm.RecordDuration(ctx, "post", time.Second)
		lm.StartPeriodicCollection(ctx, time.Second)
		lm.Stop()
	})
}

func TestLedgerMetrics_PeriodicOutboxCollection(t *testing.T) {
	provider, reader := newTestMeterProvider(t)
	stats := &stubOutboxStats{counts: map[string]int64{"PENDING": 3, "DEAD": 1}}
	lm, err := NewLedgerMetrics(LedgerMetricsConfig{Meter: provider.Meter("ledger"), OutboxProvider: stats})
	require.NoError(t, err)

	lm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	lm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	defer lm.Stop()

	assert.Eventually(t, func() bool { return stats.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	m, ok := findMetric(t, reader, "ledger_outbox_entries")
	require.True(t, ok)
	gauge := m.Data.(metricdata.Gauge[int64])
	byStatus := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(AttrStatus)
		byStatus[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"PENDING": 3, "DEAD": 1}, byStatus)
}

func TestLedgerMetrics_CollectionErrorKeepsRunning(t *testing.T) {
	provider, _ := newTestMeterProvider(t)
	stats := &stubOutboxStats{err: errors.New("db down")}
	lm, err := NewLedgerMetrics(LedgerMetricsConfig{Meter: provider.Meter("ledger"), OutboxProvider: stats})
	require.NoError(t, err)

	lm.StartPeriodicCollection(context.Background(), 5*time.Millisecond)
	assert.Eventually(t, func() bool { return stats.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	lm.Stop()
	lm.Stop()
}
