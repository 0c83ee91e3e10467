package pgsource

import (
	"encoding/csv"
	"errors"
	"io"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-desk/catalog"
)

const (
	colMetadata = "metadata"

	// FixtureEventSpacing is the time between two generated fixture events.
	FixtureEventSpacing = 2 * time.Millisecond
)

type addedPayload struct {
	BookID  string `json:"BookID"`
	Title   string `json:"Title"`
	Authors string `json:"Authors"`
}

type lentPayload struct {
	BookID   string `json:"BookID"`
	ReaderID string `json:"ReaderID"`
}

type fixtureMetadata struct {
	MessageID     string `json:"MessageID"`
	CausationID   string `json:"CausationID"`
	CorrelationID string `json:"CorrelationID"`
}

// FixtureEvent is a circulation event ready to be written to the events table.
type FixtureEvent struct {
	CirculationEvent
	MetadataJSON []byte
}

// BuildFixtureEvents creates the circulation events whose projection is books:
// every book is added to circulation in order, and unavailable books are lent to a reader afterwards.
// Occurrence times start at start and are FixtureEventSpacing apart.
func BuildFixtureEvents(books []catalog.Book, start time.Time) ([]FixtureEvent, error) {
	events := make([]FixtureEvent, 0, len(books))
	at := start

	appendEvent := func(eventType string, payload any) error {
		payloadJSON, err := jsoniter.ConfigFastest.Marshal(payload)
		if err != nil {
			return errors.Join(ErrWritingFixturesFailed, err)
		}

		messageID := uuid.New().String()
		metadataJSON, err := jsoniter.ConfigFastest.Marshal(fixtureMetadata{
			MessageID:     messageID,
			CausationID:   messageID,
			CorrelationID: messageID,
		})
		if err != nil {
			return errors.Join(ErrWritingFixturesFailed, err)
		}

		events = append(events, FixtureEvent{
			CirculationEvent: CirculationEvent{
				EventType:      eventType,
				OccurredAt:     at,
				PayloadJSON:    payloadJSON,
				SequenceNumber: int64(len(events) + 1),
			},
			MetadataJSON: metadataJSON,
		})
		at = at.Add(FixtureEventSpacing)

		return nil
	}

	for _, book := range books {
		err := appendEvent(BookCopyAddedToCirculationEventType, addedPayload{
			BookID:  book.ID.String(),
			Title:   book.Title,
			Authors: book.Author,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, book := range books {
		if book.Available {
			continue
		}

		err := appendEvent(BookCopyLentToReaderEventType, lentPayload{
			BookID:   book.ID.String(),
			ReaderID: uuid.New().String(),
		})
		if err != nil {
			return nil, err
		}
	}

	return events, nil
}

// WriteFixturesCSV writes the events as occurred_at,event_type,payload,metadata rows,
// the column order expected by COPY events (occurred_at, event_type, payload, metadata) FROM ... CSV.
func WriteFixturesCSV(w io.Writer, events []FixtureEvent) error {
	csvWriter := csv.NewWriter(w)

	for _, event := range events {
		record := []string{
			event.OccurredAt.Format(time.RFC3339Nano),
			event.EventType,
			string(event.PayloadJSON),
			string(event.MetadataJSON),
		}

		if err := csvWriter.Write(record); err != nil {
			return errors.Join(ErrWritingFixturesFailed, err)
		}
	}

	csvWriter.Flush()

	if err := csvWriter.Error(); err != nil {
		return errors.Join(ErrWritingFixturesFailed, err)
	}

	return nil
}

// BuildFixturesInsertSQL creates one INSERT statement for all events into tableName.
func BuildFixturesInsertSQL(tableName string, events []FixtureEvent) (string, error) {
	if tableName == "" {
		return "", ErrEmptyTableName
	}

	if len(events) == 0 {
		return "", ErrNoFixtureEvents
	}

	rows := make([]any, 0, len(events))
	for _, event := range events {
		rows = append(rows, goqu.Record{
			colOccurredAt: event.OccurredAt,
			colEventType:  event.EventType,
			colPayload:    string(event.PayloadJSON),
			colMetadata:   string(event.MetadataJSON),
		})
	}

	sqlQuery, _, err := goqu.Dialect(dialectPostgres).
		Insert(tableName).
		Rows(rows...).
		ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}
