package ledger

import (
	"time"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// BookReturnedEventType is the event type identifier.
const BookReturnedEventType = "BookReturned"

// BookReturned represents all ledger entries of a book being removed.
type BookReturned struct {
	EventType    string
	BookID       catalog.BookID
	RemovedLoans int
	OccurredAt   time.Time
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(bookID catalog.BookID, removedLoans int, occurredAt time.Time) BookReturned {
	return BookReturned{
		EventType:    BookReturnedEventType,
		BookID:       bookID,
		RemovedLoans: removedLoans,
		OccurredAt:   occurredAt,
	}
}

// IsEventType returns the event type identifier.
func (e BookReturned) IsEventType() string {
	return BookReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
