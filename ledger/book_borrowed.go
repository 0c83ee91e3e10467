package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// BookBorrowedEventType is the event type identifier.
const BookBorrowedEventType = "BookBorrowed"

// BookBorrowed represents a book being added to the ledger.
type BookBorrowed struct {
	EventType  string
	LoanID     uuid.UUID
	BookID     catalog.BookID
	Title      string
	Author     string
	OccurredAt time.Time
}

// BuildBookBorrowed creates a new BookBorrowed event with a denormalized copy of the book.
func BuildBookBorrowed(loanID uuid.UUID, book catalog.Book, occurredAt time.Time) BookBorrowed {
	return BookBorrowed{
		EventType:  BookBorrowedEventType,
		LoanID:     loanID,
		BookID:     book.ID,
		Title:      book.Title,
		Author:     book.Author,
		OccurredAt: occurredAt,
	}
}

// IsEventType returns the event type identifier.
func (e BookBorrowed) IsEventType() string {
	return BookBorrowedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookBorrowed) HasOccurredAt() time.Time {
	return e.OccurredAt
}
