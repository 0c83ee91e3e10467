package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/oteladapters"
)

func newMeteredCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics), "Failed to collect metrics")

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Aggregation {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return nil
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// setup
	collector, reader := newMeteredCollector()
	labels := observability.BuildOperationLabels("borrow_book", observability.StatusSuccess)

	// act
	collector.RecordDuration(observability.OperationDurationMetric, 150*time.Millisecond, labels)

	// assert
	histogram, ok := findMetric(t, collect(t, reader), observability.OperationDurationMetric).(metricdata.Histogram[float64])
	require.True(t, ok, "duration should be recorded as a float64 histogram")
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001, "duration should be recorded in seconds")

	expectedAttrs := attribute.NewSet(
		attribute.String(observability.LogAttrOperation, "borrow_book"),
		attribute.String(observability.LogAttrStatus, observability.StatusSuccess),
	)
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs), "Attributes should match")
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// setup
	collector, reader := newMeteredCollector()
	labels := observability.BuildOperationLabels("return_book", observability.StatusIdempotent)

	// act
	collector.IncrementCounter(observability.OperationCallsMetric, labels)
	collector.IncrementCounterContext(context.Background(), observability.OperationCallsMetric, labels)
	collector.IncrementCounter(observability.OperationCallsMetric, labels)

	// assert
	sum, ok := findMetric(t, collect(t, reader), observability.OperationCallsMetric).(metricdata.Sum[int64])
	require.True(t, ok, "counter should be recorded as an int64 sum")
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// setup
	collector, reader := newMeteredCollector()

	// act
	collector.RecordValue(observability.LedgerSizeMetric, 3, nil)
	collector.RecordValueContext(context.Background(), observability.LedgerSizeMetric, 2, nil)

	// assert
	gauge, ok := findMetric(t, collect(t, reader), observability.LedgerSizeMetric).(metricdata.Gauge[float64])
	require.True(t, ok, "value should be recorded as a float64 gauge")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, float64(2), gauge.DataPoints[0].Value, "gauge should hold the last value")
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	collector, reader := newMeteredCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter(observability.OperationCallsMetric, nil)
		}()
	}
	wg.Wait()

	sum, ok := findMetric(t, collect(t, reader), observability.OperationCallsMetric).(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
