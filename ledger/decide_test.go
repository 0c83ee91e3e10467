package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/ledger"
)

func Test_DecideBorrow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	loanID := uuid.New()
	book := catalog.Book{ID: "1", Title: "Dune", Author: "Herbert", Available: true}

	testCases := []struct {
		name    string
		records []ledger.BorrowRecord
	}{
		{
			name:    "empty ledger",
			records: nil,
		},
		{
			name:    "book already borrowed",
			records: []ledger.BorrowRecord{{LoanID: uuid.New(), BookID: "1", Title: "Dune"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := ledger.DecideBorrow(tc.records, loanID, book, now)

			// assert
			require.True(t, result.HasEventToApply(), "borrowing should always produce an event")
			assert.Equal(t, ledger.BuildBookBorrowed(loanID, book, now), result.Event)
		})
	}
}

func Test_DecideReturn(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []ledger.BorrowRecord{
		{LoanID: uuid.New(), BookID: "1"},
		{LoanID: uuid.New(), BookID: "2"},
		{LoanID: uuid.New(), BookID: "1"},
	}

	testCases := []struct {
		name          string
		bookID        catalog.BookID
		expectedEvent ledger.DomainEvent
	}{
		{
			name:          "book with two entries",
			bookID:        "1",
			expectedEvent: ledger.BuildBookReturned("1", 2, now),
		},
		{
			name:          "book with one entry",
			bookID:        "2",
			expectedEvent: ledger.BuildBookReturned("2", 1, now),
		},
		{
			name:          "book not in ledger",
			bookID:        "3",
			expectedEvent: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := ledger.DecideReturn(records, tc.bookID, now)

			// assert
			assert.Equal(t, tc.expectedEvent == nil, result.IsIdempotent())
			assert.Equal(t, tc.expectedEvent, result.Event)
		})
	}
}
