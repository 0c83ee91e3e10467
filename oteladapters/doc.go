// Package oteladapters implements the observability interfaces on top of OpenTelemetry.
//
//   - MetricsCollector maps durations to histograms, counters to counters and values to gauges
//   - TracingCollector creates spans for desk operations
//   - SlogBridgeLogger is a context-aware logger with trace correlation
//   - NewProviders wires OTLP exporters for traces, metrics and logs and installs them globally
package oteladapters
