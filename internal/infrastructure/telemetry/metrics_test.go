package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/mar-ia/crm/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("crm"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestCRMMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	meter := provider.Meter("crm-test")

	m, err := NewCRMMetrics(meter)
	require.NoError(t, err)
	h, err := NewHistogram(meter, "http_request_duration_seconds", "latency", "s", HTTPDurationBuckets)
	require.NoError(t, err)

	ctx := context.Background()
	m.ProviderCalls.Inc(ctx, attribute.String("provider", "openai"), attribute.String("outcome", "ok"))
	m.ProviderCalls.Inc(ctx, attribute.String("provider", "openai"), attribute.String("outcome", "ok"))
	m.BulkItems.Add(ctx, 5)
	h.RecordDuration(ctx, 30*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, mt := range rm.ScopeMetrics[0].Metrics {
		byName[mt.Name] = mt
	}

	calls, ok := byName["crm_provider_calls_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, calls.DataPoints, 1)
	assert.Equal(t, int64(2), calls.DataPoints[0].Value)

	bulk, ok := byName["crm_bulk_items_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(5), bulk.DataPoints[0].Value)

	hist, ok := byName["http_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, HTTPDurationBuckets, hist.DataPoints[0].Bounds)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestNoopCRMMetrics(t *testing.T) {
	m := NoopCRMMetrics()
	assert.NotPanics(t, func() { m.LeadConversions.Inc(context.Background()) })
}
