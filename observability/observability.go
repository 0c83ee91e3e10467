package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// OperationDurationMetric tracks operation duration (OpenTelemetry-compatible).
	OperationDurationMetric = "librarydesk_operation_duration_seconds"

	// OperationCallsMetric tracks total operation calls.
	OperationCallsMetric = "librarydesk_operation_calls_total"

	// OperationIdempotentMetric tracks operations that did not change any state.
	OperationIdempotentMetric = "librarydesk_idempotent_operations_total"

	// LedgerSizeMetric reports the number of entries in the borrow ledger after each change.
	LedgerSizeMetric = "librarydesk_ledger_entries"

	// CatalogSizeMetric reports the number of books in the catalog after each successful load.
	CatalogSizeMetric = "librarydesk_catalog_books"

	// StatusSuccess indicates successful completion.
	StatusSuccess = "success"

	// StatusError indicates a processing error.
	StatusError = "error"

	// StatusIdempotent indicates no state change was needed.
	StatusIdempotent = "idempotent"

	// StatusCanceled indicates the operation was canceled due to context cancellation.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the operation timed out due to context deadline exceeded.
	StatusTimeout = "timeout"

	// LogMsgOperationStarted is logged when an operation begins.
	LogMsgOperationStarted = "operation started"

	// LogMsgOperationCompleted is logged when an operation succeeds.
	LogMsgOperationCompleted = "operation completed"

	// LogMsgOperationFailed is logged when an operation fails.
	LogMsgOperationFailed = "operation failed"

	// LogAttrOperation identifies the operation in logs, metric labels, and span attributes.
	LogAttrOperation = "operation"

	// LogAttrStatus indicates the processing status.
	LogAttrStatus = "status"

	// LogAttrDurationMS indicates the processing duration in milliseconds.
	LogAttrDurationMS = "duration_ms"

	// LogAttrError contains error details.
	LogAttrError = "error"

	// LogAttrSessionID identifies the session an operation belongs to.
	LogAttrSessionID = "session_id"

	// SpanNameOperation is the tracing span name used for all operations.
	SpanNameOperation = "librarydesk.operation"
)

// Instruments bundles the optional observability collaborators of a component.
// The zero value is valid and records nothing.
type Instruments struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// Operation is an in-flight, instrumented operation started with Instruments.Start.
type Operation struct {
	ctx         context.Context
	instruments Instruments
	name        string
	span        SpanContext
	started     time.Time
}

// Start opens a span, logs the start of the operation, and returns the (possibly span-enriched) context.
func (i Instruments) Start(ctx context.Context, operation string) (context.Context, *Operation) {
	ctx, span := StartOperationSpan(ctx, i.Tracing, operation)
	LogOperationStart(ctx, i.Logger, i.ContextualLogger, operation)

	return ctx, &Operation{
		ctx:         ctx,
		instruments: i,
		name:        operation,
		span:        span,
		started:     time.Now(),
	}
}

// Succeed records the operation outcome, which is either StatusSuccess or StatusIdempotent.
func (o *Operation) Succeed(outcome string) {
	duration := time.Since(o.started)

	RecordOperationMetrics(o.ctx, o.instruments.Metrics, o.name, outcome, duration)
	FinishOperationSpan(o.instruments.Tracing, o.span, outcome, duration, nil)
	LogOperationSuccess(o.ctx, o.instruments.Logger, o.instruments.ContextualLogger, o.name, outcome, duration)
}

// Fail records a failed operation, classifying cancellation and timeouts separately.
func (o *Operation) Fail(err error) {
	o.FailWithMessage(LogMsgOperationFailed, err)
}

// FailWithMessage is Fail with a domain-specific log message in place of LogMsgOperationFailed.
func (o *Operation) FailWithMessage(msg string, err error) {
	duration := time.Since(o.started)
	status := StatusFromError(err)

	RecordOperationMetrics(o.ctx, o.instruments.Metrics, o.name, status, duration)
	FinishOperationSpan(o.instruments.Tracing, o.span, status, duration, err)
	LogOperationError(o.ctx, o.instruments.Logger, o.instruments.ContextualLogger, msg, o.name, err)
}

// BuildOperationLabels creates standard metric labels for operations.
func BuildOperationLabels(operation, status string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// StatusFromError maps an error to the status label used in metrics and spans.
func StatusFromError(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusError
	}
}

// RecordOperationMetrics records the duration and call count of an operation.
// It handles both context-aware and basic metrics collectors automatically.
func RecordOperationMetrics(
	ctx context.Context,
	collector MetricsCollector,
	operation string,
	status string,
	duration time.Duration,
) {
	if collector == nil {
		return
	}

	labels := BuildOperationLabels(operation, status)

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, OperationCallsMetric, labels)
	} else {
		collector.RecordDuration(OperationDurationMetric, duration, labels)
		collector.IncrementCounter(OperationCallsMetric, labels)
	}

	if status == StatusIdempotent {
		if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, OperationIdempotentMetric, labels)
		} else {
			collector.IncrementCounter(OperationIdempotentMetric, labels)
		}
	}
}

// RecordValue records a gauge value, using the context-aware method when the collector supports it.
func RecordValue(
	ctx context.Context,
	collector MetricsCollector,
	metric string,
	value float64,
	labels map[string]string,
) {
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}

// StartOperationSpan starts a distributed tracing span for an operation.
// Returns the updated context and span context, or the original context and nil if tracing is disabled.
func StartOperationSpan(
	ctx context.Context,
	tracingCollector TracingCollector,
	operation string,
) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	attrs := map[string]string{
		LogAttrOperation: operation,
	}

	return tracingCollector.StartSpan(ctx, SpanNameOperation, attrs)
}

// FinishOperationSpan completes a distributed tracing span with the operation outcome.
func FinishOperationSpan(
	tracingCollector TracingCollector,
	span SpanContext,
	status string,
	duration time.Duration,
	err error,
) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: formatDurationMS(duration),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogOperationStart logs the beginning of an operation at debug level.
func LogOperationStart(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, LogMsgOperationStarted, LogAttrOperation, operation)
	} else if logger != nil {
		logger.Debug(LogMsgOperationStarted, LogAttrOperation, operation)
	}
}

// LogOperationSuccess logs successful operation completion.
func LogOperationSuccess(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	operation string,
	outcome string,
	duration time.Duration,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrStatus, outcome,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, LogMsgOperationCompleted, args...)
	} else if logger != nil {
		logger.Info(LogMsgOperationCompleted, args...)
	}
}

// LogOperationError logs operation errors.
func LogOperationError(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	msg string,
	operation string,
	err error,
) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrError, err.Error(),
	}

	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}

func formatDurationMS(duration time.Duration) string {
	return fmt.Sprintf("%.2f", ToMilliseconds(duration))
}
