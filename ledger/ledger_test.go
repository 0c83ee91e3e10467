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

var (
	dune = catalog.Book{ID: "1", Title: "Dune", Author: "Herbert", Available: true}
	emma = catalog.Book{ID: "2", Title: "Emma", Author: "Austen", Available: true}
)

func Test_Ledger_Borrow_AppendsRecord(t *testing.T) {
	// setup
	loanID := uuid.MustParse("5f1a52a4-8f4e-4c34-9a7e-1b1d1d0c2c11")
	l := ledger.New(ledger.WithLoanIDGenerator(func() uuid.UUID { return loanID }))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// act
	event := l.Borrow(dune, now)

	// assert
	assert.Equal(t, ledger.BookBorrowedEventType, event.IsEventType())
	assert.Equal(t, now, event.HasOccurredAt())
	assert.Equal(t, []ledger.BorrowRecord{
		{LoanID: loanID, BookID: "1", Title: "Dune", Author: "Herbert", BorrowedAt: now},
	}, l.Records())
	assert.True(t, l.Contains("1"))
	assert.False(t, l.Contains("2"))
}

func Test_Ledger_Borrow_SameBookTwice_CreatesTwoEntries(t *testing.T) {
	l := ledger.New()

	first := l.Borrow(dune, time.Now())
	second := l.Borrow(dune, time.Now())

	assert.Equal(t, 2, l.Len())
	assert.NotEqual(t, first.LoanID, second.LoanID, "each entry should get its own loan id")
}

func Test_Ledger_Return_RemovesAllMatchingEntries(t *testing.T) {
	// setup
	l := ledger.New()
	l.Borrow(dune, time.Now())
	l.Borrow(emma, time.Now())
	l.Borrow(dune, time.Now())

	// act
	result := l.Return("1", time.Now())

	// assert
	require.True(t, result.HasEventToApply())
	returned, ok := result.Event.(ledger.BookReturned)
	require.True(t, ok)
	assert.Equal(t, 2, returned.RemovedLoans)
	assert.False(t, l.Contains("1"))
	require.Len(t, l.Records(), 1)
	assert.Equal(t, catalog.BookID("2"), l.Records()[0].BookID)
}

func Test_Ledger_Return_UnknownID_IsNoOp(t *testing.T) {
	// setup
	l := ledger.New()
	l.Borrow(dune, time.Now())
	before := l.Records()

	// act
	result := l.Return("999", time.Now())

	// assert
	assert.True(t, result.IsIdempotent())
	assert.Nil(t, result.Event)
	assert.Equal(t, before, l.Records(), "ledger should be unchanged")
}

func Test_Project_ReplaysEvents(t *testing.T) {
	now := time.Now()
	loanA, loanB := uuid.New(), uuid.New()

	records := ledger.Project(ledger.DomainEvents{
		ledger.BuildBookBorrowed(loanA, dune, now),
		ledger.BuildBookBorrowed(loanB, emma, now),
		ledger.BuildBookReturned("1", 1, now),
	})

	require.Len(t, records, 1)
	assert.Equal(t, loanB, records[0].LoanID)
}
