package pgsource

import "errors"

// ErrNilDatabaseConnection is returned by the constructors when a nil connection was supplied.
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")

// ErrEmptyTableName is returned by WithTableName for an empty name.
var ErrEmptyTableName = errors.New("empty events table name supplied")

// ErrBuildingQueryFailed is returned when a sql query could not be built.
var ErrBuildingQueryFailed = errors.New("building sql query failed")

// ErrQueryingEventsFailed is returned when the events could not be read.
var ErrQueryingEventsFailed = errors.New("querying circulation events failed")

// ErrScanningDBRowFailed is returned when a result row could not be scanned.
var ErrScanningDBRowFailed = errors.New("scanning db row failed")

// ErrInvalidPayloadJSON is returned when an event payload is not the expected JSON.
var ErrInvalidPayloadJSON = errors.New("event payload json is not valid")

// ErrWritingFixturesFailed is returned when fixture events cannot be written.
var ErrWritingFixturesFailed = errors.New("writing fixture events failed")

// ErrNoFixtureEvents is returned when an insert statement is requested for zero events.
var ErrNoFixtureEvents = errors.New("no fixture events supplied")
