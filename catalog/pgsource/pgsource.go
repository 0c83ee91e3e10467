package pgsource

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/catalog/pgsource/internal/adapters"
	"github.com/AntonStoeckl/library-desk/observability"
)

const (
	defaultEventTableName = "events"
	dialectPostgres       = "postgres"

	colEventType      = "event_type"
	colOccurredAt     = "occurred_at"
	colPayload        = "payload"
	colSequenceNumber = "sequence_number"

	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgProjectionFailed       = "failed to project circulation events"
	logMsgSQLExecuted            = "executed sql for catalog query"
	logMsgQueryCompleted         = "catalog query completed"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrEventCount = "event_count"
	logAttrBookCount  = "book_count"
	logAttrDurationMS = "duration_ms"
)

// Source is a catalog.Source projecting the circulation events stored in PostgreSQL.
type Source struct {
	db             adapters.DBAdapter
	eventTableName string
	occurredUntil  time.Time
	logger         observability.Logger
}

// Option defines a functional option for configuring a Source.
type Option func(*Source) error

// WithTableName sets the name of the events table.
func WithTableName(tableName string) Option {
	return func(s *Source) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		s.eventTableName = tableName

		return nil
	}
}

// WithOccurredUntil restricts the projection to events that occurred at or before the given time,
// which yields the catalog as it was at that moment.
func WithOccurredUntil(until time.Time) Option {
	return func(s *Source) error {
		s.occurredUntil = until
		return nil
	}
}

// WithLogger sets the logger for the Source.
//
// Debug level: SQL queries with execution timing
// Info level: event and book counts
// Error level: failures that make Fetch fail.
func WithLogger(logger observability.Logger) Option {
	return func(s *Source) error {
		s.logger = logger
		return nil
	}
}

// NewFromPGXPool creates a Source using a pgx Pool.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Source, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSource(adapters.NewPGXAdapter(db), options...)
}

// NewFromSQLDB creates a Source using a sql.DB.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Source, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSource(adapters.NewSQLAdapter(db), options...)
}

// NewFromSQLX creates a Source using a sqlx.DB.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Source, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newSource(adapters.NewSQLXAdapter(db), options...)
}

func newSource(db adapters.DBAdapter, options ...Option) (*Source, error) {
	source := &Source{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(source); err != nil {
			return nil, err
		}
	}

	return source, nil
}

// Fetch reads the circulation events and projects them into catalog records.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Record, error) {
	sqlQuery, buildQueryErr := s.buildSelectQuery()
	if buildQueryErr != nil {
		s.logError(logMsgBuildSelectQueryFailed, logAttrError, buildQueryErr.Error())
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, buildQueryErr)
	}

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted, logAttrQuery, sqlQuery, logAttrDurationMS, observability.ToMilliseconds(duration))
	}

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, ErrQueryingEventsFailed, queryErr)
	}
	defer s.closeRows(rows)

	events, scanErr := s.processQueryResults(rows)
	if scanErr != nil {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, scanErr)
	}

	records, projectErr := Project(events)
	if projectErr != nil {
		s.logError(logMsgProjectionFailed, logAttrError, projectErr.Error())
		return nil, errors.Join(catalog.ErrDecodingCatalogFailed, projectErr)
	}

	if s.logger != nil {
		s.logger.Info(
			logMsgQueryCompleted,
			logAttrEventCount, len(events),
			logAttrBookCount, len(records),
			logAttrDurationMS, observability.ToMilliseconds(duration),
		)
	}

	return records, nil
}

func (s *Source) processQueryResults(rows adapters.DBRows) ([]CirculationEvent, error) {
	events := make([]CirculationEvent, 0)

	for rows.Next() {
		var event CirculationEvent

		rowScanErr := rows.Scan(&event.EventType, &event.OccurredAt, &event.PayloadJSON, &event.SequenceNumber)
		if rowScanErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, rowScanErr.Error())
			return nil, errors.Join(ErrScanningDBRowFailed, rowScanErr)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		s.logError(logMsgDBQueryFailed, logAttrError, err.Error())
		return nil, errors.Join(ErrQueryingEventsFailed, err)
	}

	return events, nil
}

func (s *Source) buildSelectQuery() (string, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colSequenceNumber).
		Where(goqu.Ex{colEventType: circulationEventTypes}).
		Order(goqu.I(colSequenceNumber).Asc())

	if !s.occurredUntil.IsZero() {
		selectStmt = selectStmt.Where(goqu.C(colOccurredAt).Lte(s.occurredUntil))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *Source) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logError(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (s *Source) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
