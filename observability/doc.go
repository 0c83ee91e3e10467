// Package observability defines the dependency-free observability contracts used across the library desk
// and the helpers that record metrics, tracing spans, and logs for session operations.
//
// The interfaces mirror the method sets of log/slog and of the OpenTelemetry adapters in package oteladapters,
// so a plain *slog.Logger satisfies Logger and ContextualLogger without any glue code.
//
// Every helper is nil-safe: passing a nil collector or logger turns the helper into a no-op.
package observability
