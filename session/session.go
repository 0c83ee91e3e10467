package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/clock"
	"github.com/AntonStoeckl/library-desk/ledger"
	"github.com/AntonStoeckl/library-desk/notification"
	"github.com/AntonStoeckl/library-desk/observability"
)

const (
	operationBorrow = "borrow_book"
	operationReturn = "return_book"

	returnedText = "Book returned successfully"
)

// BorrowedText is the success notification shown after borrowing a book.
func BorrowedText(title string) string {
	return fmt.Sprintf("%q borrowed successfully", title)
}

// NotAvailableText is the error notification shown when TryBorrow refuses a book.
func NotAvailableText(title string) string {
	return fmt.Sprintf("%q is not available", title)
}

// ReturnedText is the success notification shown after returning a book.
func ReturnedText() string {
	return returnedText
}

// BookView is a catalog book together with its effective availability.
type BookView struct {
	catalog.Book
	Borrowed bool // in the ledger or marked unavailable in the catalog
}

// Status summarizes a Session.
type Status struct {
	SessionID       uuid.UUID
	Loading         bool
	Loaded          bool
	Books           int
	Loans           int
	Notification    notification.State
	NotificationTTL time.Duration
}

// Session is the explicit context object of one desk session.
type Session struct {
	id              uuid.UUID
	clock           clock.Clock
	notificationTTL time.Duration
	newID           func() uuid.UUID
	instruments     observability.Instruments

	catalog *catalog.Loader
	ledger  *ledger.Ledger
	display *notification.Display

	mu       sync.Mutex
	started  bool
	closed   bool
	cancel   context.CancelFunc
	loadDone chan struct{}
}

// New creates a session reading its catalog from source. Nothing is loaded until Start.
func New(source catalog.Source, opts ...Option) (*Session, error) {
	s := &Session{
		clock:           clock.System(),
		notificationTTL: notification.DefaultTTL,
		newID:           uuid.New,
		loadDone:        make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.id == uuid.Nil {
		s.id = s.newID()
	}

	loader, err := catalog.NewLoader(
		source,
		catalog.WithLogger(s.instruments.Logger),
		catalog.WithContextualLogger(s.instruments.ContextualLogger),
		catalog.WithMetrics(s.instruments.Metrics),
		catalog.WithTracing(s.instruments.Tracing),
	)
	if err != nil {
		return nil, err
	}

	s.catalog = loader
	s.ledger = ledger.New(ledger.WithLoanIDGenerator(s.newID))
	s.display = notification.NewDisplay(
		notification.WithClock(s.clock),
		notification.WithTTL(s.notificationTTL),
		notification.WithIDGenerator(s.newID),
	)

	return s, nil
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Start loads the catalog in a background goroutine and returns immediately.
// Loading reports true as soon as Start returns.
// The load sees a context derived from ctx that is canceled by Close.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if s.started {
		return ErrAlreadyStarted
	}

	s.started = true

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	load := s.catalog.BeginLoad()

	go func() {
		defer close(s.loadDone)
		load(loadCtx)
	}()

	return nil
}

// LoadDone is closed once the catalog load started by Start has finished, successfully or not.
func (s *Session) LoadDone() <-chan struct{} {
	return s.loadDone
}

// WaitLoaded blocks until the catalog load finished or ctx is done.
func (s *Session) WaitLoaded(ctx context.Context) error {
	select {
	case <-s.LoadDone():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels an in-flight catalog load and stops the notification timer.
// The ledger is discarded with the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	if s.cancel != nil {
		s.cancel()
	}

	s.display.Close()
}

// Loading reports whether the catalog is being loaded.
func (s *Session) Loading() bool {
	return s.catalog.Loading()
}

// Books returns the catalog in source order with effective availability.
func (s *Session) Books() []BookView {
	books := s.catalog.Books()
	views := make([]BookView, 0, len(books))

	for _, book := range books {
		views = append(views, BookView{
			Book:     book,
			Borrowed: !book.Available || s.ledger.Contains(book.ID),
		})
	}

	return views
}

// Book returns one catalog book with effective availability.
func (s *Session) Book(id catalog.BookID) (BookView, bool) {
	book, ok := s.catalog.Find(id)
	if !ok {
		return BookView{}, false
	}

	return BookView{Book: book, Borrowed: !book.Available || s.ledger.Contains(id)}, true
}

// IsBorrowed reports whether the book cannot be borrowed right now:
// it is in the ledger, it is marked unavailable, or it is not in the catalog at all.
func (s *Session) IsBorrowed(id catalog.BookID) bool {
	if s.ledger.Contains(id) {
		return true
	}

	book, ok := s.catalog.Find(id)

	return !ok || !book.Available
}

// Borrow adds the book to the ledger and shows a success notification.
// It does not check availability; borrowing the same book twice creates two entries.
func (s *Session) Borrow(ctx context.Context, id catalog.BookID) (ledger.BorrowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.borrow(ctx, id, false)
}

// TryBorrow borrows the book only if it is effectively available.
// Otherwise it shows an error notification and returns ErrBookNotAvailable.
func (s *Session) TryBorrow(ctx context.Context, id catalog.BookID) (ledger.BorrowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.borrow(ctx, id, true)
}

func (s *Session) borrow(ctx context.Context, id catalog.BookID, checkAvailability bool) (ledger.BorrowRecord, error) {
	ctx, operation := s.instruments.Start(ctx, operationBorrow)

	book, ok := s.catalog.Find(id)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrBookNotFound, id)
		operation.Fail(err)

		return ledger.BorrowRecord{}, err
	}

	if checkAvailability && (!book.Available || s.ledger.Contains(id)) {
		s.display.Error(NotAvailableText(book.Title))
		err := errors.Join(ErrBookNotAvailable, fmt.Errorf("book %s", id))
		operation.Fail(err)

		return ledger.BorrowRecord{}, err
	}

	event := s.ledger.Borrow(book, s.clock.Now())
	s.display.Success(BorrowedText(book.Title))

	operation.Succeed(observability.StatusSuccess)
	s.recordLedgerSize(ctx)

	return ledger.BorrowRecord{
		LoanID:     event.LoanID,
		BookID:     event.BookID,
		Title:      event.Title,
		Author:     event.Author,
		BorrowedAt: event.OccurredAt,
	}, nil
}

// Return removes every ledger entry of the book and shows a success notification,
// also when the book was not in the ledger.
func (s *Session) Return(ctx context.Context, id catalog.BookID) ledger.DecisionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, operation := s.instruments.Start(ctx, operationReturn)

	result := s.ledger.Return(id, s.clock.Now())
	s.display.Success(ReturnedText())

	if result.IsIdempotent() {
		operation.Succeed(observability.StatusIdempotent)
	} else {
		operation.Succeed(observability.StatusSuccess)
	}

	s.recordLedgerSize(ctx)

	return result
}

// Loans returns the ledger entries in borrow order.
func (s *Session) Loans() []ledger.BorrowRecord {
	return s.ledger.Records()
}

// Notification returns the currently displayed notification, if any.
func (s *Session) Notification() (notification.Notification, bool) {
	return s.display.Current()
}

// Subscribe streams notification changes; see notification.Display.Subscribe.
func (s *Session) Subscribe() (<-chan notification.Change, func()) {
	return s.display.Subscribe()
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	return Status{
		SessionID:       s.id,
		Loading:         s.catalog.Loading(),
		Loaded:          s.catalog.Loaded(),
		Books:           len(s.catalog.Books()),
		Loans:           s.ledger.Len(),
		Notification:    s.display.State(),
		NotificationTTL: s.display.TTL(),
	}
}

func (s *Session) recordLedgerSize(ctx context.Context) {
	observability.RecordValue(
		ctx,
		s.instruments.Metrics,
		observability.LedgerSizeMetric,
		float64(s.ledger.Len()),
		map[string]string{observability.LogAttrSessionID: s.id.String()},
	)
}
