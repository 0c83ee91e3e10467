package session_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/notification"
	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/session"
	"github.com/AntonStoeckl/library-desk/testutil/helper"
)

var epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func staticSource(records ...catalog.Record) catalog.Source {
	return catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return records, nil
	})
}

func startedSession(t *testing.T, source catalog.Source, opts ...session.Option) *session.Session {
	t.Helper()

	s, err := session.New(source, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.WaitLoaded(ctx))

	return s
}

func Test_Session_Start_Twice_ReturnsError(t *testing.T) {
	s := startedSession(t, staticSource())

	err := s.Start(context.Background())

	assert.ErrorIs(t, err, session.ErrAlreadyStarted)
}

func Test_Session_Start_AfterClose_ReturnsError(t *testing.T) {
	s, err := session.New(staticSource())
	require.NoError(t, err)
	s.Close()

	assert.ErrorIs(t, s.Start(context.Background()), session.ErrSessionClosed)
}

func Test_Session_Close_CancelsCatalogLoad(t *testing.T) {
	// setup
	entered := make(chan struct{})
	source := catalog.SourceFunc(func(ctx context.Context) ([]catalog.Record, error) {
		close(entered)
		<-ctx.Done()

		return nil, ctx.Err()
	})

	s, err := session.New(source)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	<-entered
	assert.True(t, s.Loading())

	// act
	s.Close()

	// assert
	select {
	case <-s.LoadDone():
	case <-time.After(time.Second):
		t.Fatal("catalog load should end when the session is closed")
	}
	assert.False(t, s.Loading())
	assert.Empty(t, s.Books())
}

func Test_Session_Start_ReportsLoadingBeforeLoadCompletes(t *testing.T) {
	// setup
	release := make(chan struct{})
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		<-release
		return []catalog.Record{{ID: "1", Title: "Dune"}}, nil
	})

	s, err := session.New(source)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	// act
	require.NoError(t, s.Start(context.Background()))

	// assert
	assert.True(t, s.Status().Loading, "loading should be reported as soon as Start returns")
	assert.False(t, s.Status().Loaded)

	close(release)
	<-s.LoadDone()
	assert.False(t, s.Status().Loading)
	assert.True(t, s.Status().Loaded)
}

func Test_Session_IsBorrowed(t *testing.T) {
	s := startedSession(t, staticSource(
		catalog.Record{ID: "1", Title: "A", Author: "X"},
		catalog.Record{ID: "2", Title: "B", Author: "Y", Available: catalog.Availability(false)},
		catalog.Record{ID: "3", Title: "C", Author: "Z", Available: catalog.Availability(true)},
	))

	assert.False(t, s.IsBorrowed("1"), "absent flag means available")
	assert.True(t, s.IsBorrowed("2"), "flag false means not available")
	assert.False(t, s.IsBorrowed("3"))
	assert.True(t, s.IsBorrowed("404"), "unknown ids are not available")

	_, err := s.Borrow(context.Background(), "3")
	require.NoError(t, err)
	assert.True(t, s.IsBorrowed("3"))
}

func Test_Session_Borrow_Success(t *testing.T) {
	// setup
	fakeClock := helper.NewFakeClock(epoch)
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	logSpy := helper.NewLogHandlerSpy(false)
	sessionID := uuid.New()

	s := startedSession(
		t,
		staticSource(catalog.Record{ID: "1", Title: "Dune", Author: "Herbert"}),
		session.WithClock(fakeClock),
		session.WithSessionID(sessionID),
		session.WithMetrics(metricsSpy),
		session.WithLogger(slog.New(logSpy)),
	)

	// act
	record, err := s.Borrow(context.Background(), "1")

	// assert
	require.NoError(t, err)
	assert.Equal(t, catalog.BookID("1"), record.BookID)
	assert.Equal(t, "Dune", record.Title)
	assert.Equal(t, "Herbert", record.Author)
	assert.Equal(t, epoch, record.BorrowedAt)
	assert.Equal(t, []catalog.BookID{"1"}, loanBookIDs(s))

	current, ok := s.Notification()
	require.True(t, ok)
	assert.Equal(t, `"Dune" borrowed successfully`, current.Text)
	assert.Equal(t, notification.KindSuccess, current.Kind)

	assert.True(t, metricsSpy.HasCounterRecordWithLabels(
		observability.OperationCallsMetric,
		observability.BuildOperationLabels("borrow_book", observability.StatusSuccess),
	))
	size, found := metricsSpy.LastValue(observability.LedgerSizeMetric)
	assert.True(t, found)
	assert.Equal(t, float64(1), size)
	assert.True(t, logSpy.HasInfoLogWithMessage(observability.LogMsgOperationCompleted).
		WithAttribute(observability.LogAttrOperation, "borrow_book").Assert())
}

func Test_Session_Borrow_UnknownBook_ReturnsError(t *testing.T) {
	s := startedSession(t, staticSource())

	_, err := s.Borrow(context.Background(), "404")

	assert.ErrorIs(t, err, session.ErrBookNotFound)
	assert.Empty(t, s.Loans())
	_, shown := s.Notification()
	assert.False(t, shown)
}

func Test_Session_Borrow_Twice_KeepsBothEntries(t *testing.T) {
	s := startedSession(t, staticSource(catalog.Record{ID: "1", Title: "Dune"}))

	_, err := s.Borrow(context.Background(), "1")
	require.NoError(t, err)
	_, err = s.Borrow(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []catalog.BookID{"1", "1"}, loanBookIDs(s))
}

func Test_Session_TryBorrow_NotAvailable(t *testing.T) {
	testCases := []struct {
		name    string
		records []catalog.Record
		prepare func(s *session.Session)
	}{
		{
			name:    "marked unavailable",
			records: []catalog.Record{{ID: "2", Title: "B", Available: catalog.Availability(false)}},
			prepare: func(_ *session.Session) {},
		},
		{
			name:    "already borrowed",
			records: []catalog.Record{{ID: "2", Title: "B"}},
			prepare: func(s *session.Session) {
				_, _ = s.Borrow(context.Background(), "2")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			s := startedSession(t, staticSource(tc.records...))
			tc.prepare(s)
			loansBefore := s.Loans()

			// act
			_, err := s.TryBorrow(context.Background(), "2")

			// assert
			assert.ErrorIs(t, err, session.ErrBookNotAvailable)
			assert.Equal(t, loansBefore, s.Loans(), "ledger should be unchanged")

			current, ok := s.Notification()
			require.True(t, ok)
			assert.Equal(t, notification.KindError, current.Kind)
			assert.Equal(t, session.NotAvailableText("B"), current.Text)
		})
	}
}

func Test_Session_TryBorrow_Available(t *testing.T) {
	s := startedSession(t, staticSource(catalog.Record{ID: "1", Title: "Dune"}))

	record, err := s.TryBorrow(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, catalog.BookID("1"), record.BookID)
	assert.True(t, s.IsBorrowed("1"))
}

func Test_Session_Return_RevertsToCatalogFlag(t *testing.T) {
	// setup
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	s := startedSession(
		t,
		staticSource(catalog.Record{ID: "1", Title: "Dune"}, catalog.Record{ID: "2", Title: "Emma"}),
		session.WithMetrics(metricsSpy),
	)
	_, _ = s.Borrow(context.Background(), "1")
	_, _ = s.Borrow(context.Background(), "2")
	_, _ = s.Borrow(context.Background(), "1")

	// act
	result := s.Return(context.Background(), "1")

	// assert
	assert.False(t, result.IsIdempotent())
	assert.False(t, s.IsBorrowed("1"))
	assert.Equal(t, []catalog.BookID{"2"}, loanBookIDs(s))

	current, ok := s.Notification()
	require.True(t, ok)
	assert.Equal(t, session.ReturnedText(), current.Text)
	assert.True(t, metricsSpy.HasCounterRecordWithLabels(
		observability.OperationCallsMetric,
		observability.BuildOperationLabels("return_book", observability.StatusSuccess),
	))
}

func Test_Session_Return_NotBorrowed_IsIdempotent(t *testing.T) {
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	s := startedSession(t, staticSource(catalog.Record{ID: "1", Title: "Dune"}), session.WithMetrics(metricsSpy))

	result := s.Return(context.Background(), "1")

	assert.True(t, result.IsIdempotent())
	assert.Empty(t, s.Loans())
	current, ok := s.Notification()
	require.True(t, ok, "a no-op return still confirms to the user")
	assert.Equal(t, session.ReturnedText(), current.Text)
	assert.True(t, metricsSpy.HasCounterRecordWithLabels(
		observability.OperationIdempotentMetric,
		observability.BuildOperationLabels("return_book", observability.StatusIdempotent),
	))
}

func Test_Session_Books_ReportsEffectiveAvailability(t *testing.T) {
	s := startedSession(t, staticSource(
		catalog.Record{ID: "1", Title: "A"},
		catalog.Record{ID: "2", Title: "B", Available: catalog.Availability(false)},
		catalog.Record{ID: "3", Title: "C"},
	))
	_, _ = s.Borrow(context.Background(), "3")

	books := s.Books()

	require.Len(t, books, 3)
	assert.False(t, books[0].Borrowed)
	assert.True(t, books[1].Borrowed)
	assert.True(t, books[2].Borrowed)
	assert.True(t, books[2].Available, "the catalog flag itself is unchanged by borrowing")

	view, ok := s.Book("2")
	require.True(t, ok)
	assert.True(t, view.Borrowed)
}

func Test_Session_FailedLoad_LeavesCatalogEmpty(t *testing.T) {
	logSpy := helper.NewLogHandlerSpy(false)
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, errors.New("boom"))
	})

	s := startedSession(t, source, session.WithContextualLogger(slog.New(logSpy)))

	status := s.Status()
	assert.False(t, status.Loading)
	assert.False(t, status.Loaded)
	assert.Equal(t, 0, status.Books)
	assert.True(t, logSpy.HasErrorLogWithMessage("catalog load failed").Assert())
	assert.Equal(t, 1, logSpy.GetRecordCountWithLevel(slog.LevelError))
}

func Test_Session_Notification_ExpiresAfterTTL(t *testing.T) {
	fakeClock := helper.NewFakeClock(epoch)
	s := startedSession(
		t,
		staticSource(catalog.Record{ID: "1", Title: "Dune"}),
		session.WithClock(fakeClock),
		session.WithNotificationTTL(time.Second),
	)
	_, _ = s.Borrow(context.Background(), "1")

	fakeClock.Advance(time.Second + time.Millisecond)

	_, ok := s.Notification()
	assert.False(t, ok)
	assert.Equal(t, notification.StateIdle, s.Status().Notification)
	assert.Equal(t, time.Second, s.Status().NotificationTTL)
}

func Test_Session_Subscribe_ReceivesNotifications(t *testing.T) {
	s := startedSession(t, staticSource(catalog.Record{ID: "1", Title: "Dune"}))
	changes, cancel := s.Subscribe()
	defer cancel()

	_, _ = s.Borrow(context.Background(), "1")

	change := <-changes
	assert.Equal(t, notification.ChangeShown, change.Type)
	assert.Equal(t, session.BorrowedText("Dune"), change.Notification.Text)
}

func loanBookIDs(s *session.Session) []catalog.BookID {
	ids := make([]catalog.BookID, 0)
	for _, loan := range s.Loans() {
		ids = append(ids, loan.BookID)
	}

	return ids
}
