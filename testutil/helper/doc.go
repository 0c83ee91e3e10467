// Package helper provides test doubles shared by the library desk test suites:
// spies for slog handlers, metrics and tracing collectors, a manually advanced clock,
// and small builders for catalog fixtures.
package helper
