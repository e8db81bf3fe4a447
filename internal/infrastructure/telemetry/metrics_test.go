package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMeterProvider returns a meter provider backed by a manual reader.
func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, reader
}

// findMetric collects from reader and returns the named metric.
func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// sumFor returns the int64 sum recorded for the data point carrying attr.
func sumFor(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()
	m, ok := findMetric(t, reader, name)
	require.True(t, ok, "metric %s not recorded", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(attr.Key); found && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestCounter(t *testing.T) {
	provider, reader := newTestMeterProvider(t)

	c, err := NewCounter(provider.Meter("test"), "test_total", "test counter", "{n}")
	require.NoError(t, err)

	attr := AttrTenantID.String("t1")
	c.Inc(context.Background(), attr)
	c.Add(context.Background(), 4, attr)

	assert.Equal(t, int64(5), sumFor(t, reader, "test_total", attr))
}

func TestHistogram(t *testing.T) {
	provider, reader := newTestMeterProvider(t)

	h, err := NewHistogram(provider.Meter("test"), HistogramOpts{
		Name:       "test_seconds",
		Unit:       "s",
		Boundaries: SmallDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 5*time.Millisecond)
	h.Record(context.Background(), 0.01)

	m, ok := findMetric(t, reader, "test_seconds")
	require.True(t, ok)
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, SmallDurationBuckets, hist.DataPoints[0].Bounds)
}

func TestGauge(t *testing.T) {
	provider, reader := newTestMeterProvider(t)

	g, err := NewGauge(provider.Meter("test"), "test_gauge", "test gauge", "{n}")
	require.NoError(t, err)
	g.Record(context.Background(), 3)
	g.Record(context.Background(), 7)

	m, ok := findMetric(t, reader, "test_gauge")
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
}

func TestFloatGauge(t *testing.T) {
	provider, reader := newTestMeterProvider(t)

	g, err := NewFloatGauge(provider.Meter("test"), "test_ratio", "test ratio", "1")
	require.NoError(t, err)
	g.Record(context.Background(), 0.5)

	m, ok := findMetric(t, reader, "test_ratio")
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.InDelta(t, 0.5, gauge.DataPoints[0].Value, 1e-9)
}
