package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// DecideBorrow decides what borrowing a book means for the given records.
//
//	GIVEN: any ledger contents
//	WHEN: a book is borrowed
//	THEN: BookBorrowed is generated, even if the book is already in the ledger
//
// Availability is checked by the caller; the ledger accepts duplicates.
func DecideBorrow(_ []BorrowRecord, loanID uuid.UUID, book catalog.Book, occurredAt time.Time) DecisionResult {
	return SuccessDecision(BuildBookBorrowed(loanID, book, occurredAt))
}

// DecideReturn decides what returning a book means for the given records.
//
//	GIVEN: ledger contents
//	WHEN: a book id is returned
//	THEN: BookReturned is generated, carrying the number of entries to remove
//	IDEMPOTENCY: if no entry matches the id, no event is generated (no-op)
func DecideReturn(records []BorrowRecord, bookID catalog.BookID, occurredAt time.Time) DecisionResult {
	matching := 0

	for _, record := range records {
		if record.BookID == bookID {
			matching++
		}
	}

	if matching == 0 {
		return IdempotentDecision()
	}

	return SuccessDecision(BuildBookReturned(bookID, matching, occurredAt))
}
