package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/oteladapters"
)

func newTracedCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// setup
	collector, exporter := newTracedCollector()

	// act
	ctx, spanCtx := collector.StartSpan(
		context.Background(),
		observability.SpanNameOperation,
		map[string]string{observability.LogAttrOperation: "borrow_book"},
	)
	spanCtx.AddAttribute("book_id", "1")
	collector.FinishSpan(spanCtx, observability.StatusSuccess, map[string]string{observability.LogAttrDurationMS: "1.50"})

	// assert
	assert.NotNil(t, ctx)
	spans := exporter.GetSpans()
	require.Len(t, spans, 1, "Expected exactly one span")

	span := spans[0]
	assert.Equal(t, observability.SpanNameOperation, span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)

	for key, expected := range map[string]string{
		observability.LogAttrOperation:  "borrow_book",
		"book_id":                       "1",
		observability.LogAttrDurationMS: "1.50",
	} {
		value, found := spanAttribute(span, key)
		assert.True(t, found, "span should have attribute %s", key)
		assert.Equal(t, expected, value)
	}
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{observability.StatusSuccess, codes.Ok},
		{observability.StatusIdempotent, codes.Ok},
		{observability.StatusError, codes.Error},
		{observability.StatusCanceled, codes.Error},
		{observability.StatusTimeout, codes.Error},
		{"something_else", codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			collector, exporter := newTracedCollector()

			_, spanCtx := collector.StartSpan(context.Background(), "op", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_FinishSpan_IgnoresForeignSpanContext(t *testing.T) {
	collector, exporter := newTracedCollector()

	assert.NotPanics(t, func() {
		collector.FinishSpan(nil, observability.StatusSuccess, nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func Test_TracingCollector_UnknownStatusBecomesAttribute(t *testing.T) {
	collector, exporter := newTracedCollector()

	_, spanCtx := collector.StartSpan(context.Background(), "op", nil)
	spanCtx.SetStatus("partial")
	collector.FinishSpan(spanCtx, "partial", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes, attribute.String(observability.LogAttrStatus, "partial"))
}
