package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/oteladapters"
	"github.com/AntonStoeckl/library-desk/session"
	"github.com/AntonStoeckl/library-desk/testutil/helper"
)

func Test_Session_WithOpenTelemetryAdapters(t *testing.T) {
	// setup
	metrics, reader := newMeteredCollector()
	tracing, exporter := newTracedCollector()
	logSpy := helper.NewLogHandlerSpy(false)

	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return []catalog.Record{{ID: "1", Title: "Dune", Author: "Herbert"}}, nil
	})

	s, err := session.New(
		source,
		session.WithMetrics(metrics),
		session.WithTracing(tracing),
		session.WithContextualLogger(oteladapters.NewSlogBridgeLogger("librarydesk-test", logSpy)),
	)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.WaitLoaded(ctx))

	// act
	_, err = s.Borrow(context.Background(), "1")
	require.NoError(t, err)
	s.Return(context.Background(), "1")

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 3, "load, borrow and return should each produce one span")
	for _, span := range spans {
		assert.Equal(t, observability.SpanNameOperation, span.Name)
		assert.Equal(t, codes.Ok, span.Status.Code)
	}

	calls, ok := findMetric(t, collect(t, reader), observability.OperationCallsMetric).(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, calls.DataPoints, 3, "one data point per operation and status")

	assert.True(t, logSpy.HasInfoLogWithMessage(observability.LogMsgOperationCompleted).
		WithAttribute(observability.LogAttrOperation, "return_book").Assert())
}
