package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// BorrowRecord is one entry of the ledger.
type BorrowRecord struct {
	LoanID     uuid.UUID
	BookID     catalog.BookID
	Title      string
	Author     string
	BorrowedAt time.Time
}

// Ledger is the in-memory collection of currently borrowed books, in borrow order.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	records []BorrowRecord
	newID   func() uuid.UUID
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLoanIDGenerator replaces uuid.New as the source of loan ids.
func WithLoanIDGenerator(generate func() uuid.UUID) Option {
	return func(l *Ledger) {
		l.newID = generate
	}
}

// New creates an empty Ledger.
func New(opts ...Option) *Ledger {
	ledger := &Ledger{
		records: make([]BorrowRecord, 0),
		newID:   uuid.New,
	}

	for _, opt := range opts {
		opt(ledger)
	}

	return ledger
}

// Borrow appends an entry for the book with BorrowedAt set to at. There is no validation.
func (l *Ledger) Borrow(book catalog.Book, at time.Time) BookBorrowed {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := DecideBorrow(l.records, l.newID(), book, at)
	l.apply(result.Event)

	return result.Event.(BookBorrowed) //nolint:forcetypeassert // DecideBorrow always yields BookBorrowed
}

// Return removes every entry for the book id.
// The result is idempotent, and the ledger unchanged, when no entry matches.
func (l *Ledger) Return(bookID catalog.BookID, at time.Time) DecisionResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := DecideReturn(l.records, bookID, at)
	if result.HasEventToApply() {
		l.apply(result.Event)
	}

	return result
}

// Records returns a copy of the entries in borrow order.
func (l *Ledger) Records() []BorrowRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := make([]BorrowRecord, len(l.records))
	copy(records, l.records)

	return records
}

// Contains reports whether at least one entry has the book id.
func (l *Ledger) Contains(bookID catalog.BookID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, record := range l.records {
		if record.BookID == bookID {
			return true
		}
	}

	return false
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

// apply must be called with the write lock held.
func (l *Ledger) apply(event DomainEvent) {
	switch e := event.(type) {
	case BookBorrowed:
		l.records = append(l.records, BorrowRecord{
			LoanID:     e.LoanID,
			BookID:     e.BookID,
			Title:      e.Title,
			Author:     e.Author,
			BorrowedAt: e.OccurredAt,
		})

	case BookReturned:
		kept := make([]BorrowRecord, 0, len(l.records))
		for _, record := range l.records {
			if record.BookID != e.BookID {
				kept = append(kept, record)
			}
		}

		l.records = kept
	}
}

// Project builds the ledger contents by replaying events in order.
func Project(history DomainEvents) []BorrowRecord {
	ledger := New()

	for _, event := range history {
		ledger.apply(event)
	}

	return ledger.records
}
