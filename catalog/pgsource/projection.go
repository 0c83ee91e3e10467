package pgsource

import (
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-desk/catalog"
)

const (
	// BookCopyAddedToCirculationEventType is the event type of a book entering circulation.
	BookCopyAddedToCirculationEventType = "BookCopyAddedToCirculation"

	// BookCopyRemovedFromCirculationEventType is the event type of a book leaving circulation.
	BookCopyRemovedFromCirculationEventType = "BookCopyRemovedFromCirculation"

	// BookCopyLentToReaderEventType is the event type of a book being lent.
	BookCopyLentToReaderEventType = "BookCopyLentToReader"

	// BookCopyReturnedByReaderEventType is the event type of a lent book coming back.
	BookCopyReturnedByReaderEventType = "BookCopyReturnedByReader"
)

// circulationEventTypes are the event types the projection reads.
var circulationEventTypes = []string{
	BookCopyAddedToCirculationEventType,
	BookCopyRemovedFromCirculationEventType,
	BookCopyLentToReaderEventType,
	BookCopyReturnedByReaderEventType,
}

// CirculationEvent is one row of the events table.
type CirculationEvent struct {
	EventType      string
	OccurredAt     time.Time
	PayloadJSON    []byte
	SequenceNumber int64
}

// circulationPayload holds the payload fields the projection needs.
// Lent and returned events carry only BookID.
type circulationPayload struct {
	BookID  string `json:"BookID"`
	Title   string `json:"Title"`
	Authors string `json:"Authors"`
}

type bookState struct {
	record catalog.Record
	lent   bool
}

// Project replays circulation events into catalog records, ordered by when each book entered circulation.
// Events for books that are not in circulation are ignored.
func Project(events []CirculationEvent) ([]catalog.Record, error) {
	books := make(map[string]*bookState)
	order := make([]string, 0)

	for _, event := range events {
		var payload circulationPayload
		if err := jsoniter.ConfigFastest.Unmarshal(event.PayloadJSON, &payload); err != nil {
			return nil, errors.Join(
				ErrInvalidPayloadJSON,
				fmt.Errorf("%s at sequence %d: %w", event.EventType, event.SequenceNumber, err),
			)
		}

		switch event.EventType {
		case BookCopyAddedToCirculationEventType:
			if _, exists := books[payload.BookID]; !exists {
				order = append(order, payload.BookID)
			}

			books[payload.BookID] = &bookState{
				record: catalog.Record{
					ID:     catalog.BookID(payload.BookID),
					Title:  payload.Title,
					Author: payload.Authors,
				},
			}

		case BookCopyRemovedFromCirculationEventType:
			if _, exists := books[payload.BookID]; exists {
				delete(books, payload.BookID)
				order = removeID(order, payload.BookID)
			}

		case BookCopyLentToReaderEventType:
			if book, exists := books[payload.BookID]; exists {
				book.lent = true
			}

		case BookCopyReturnedByReaderEventType:
			if book, exists := books[payload.BookID]; exists {
				book.lent = false
			}
		}
	}

	records := make([]catalog.Record, 0, len(order))

	for _, id := range order {
		book := books[id]
		record := book.record
		record.Available = catalog.Availability(!book.lent)
		records = append(records, record)
	}

	return records, nil
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}

	return ids
}
