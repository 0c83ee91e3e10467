package catalog_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/observability"
	"github.com/AntonStoeckl/library-desk/testutil/helper"
)

func Test_NewLoader_WithNilSource_ReturnsError(t *testing.T) {
	loader, err := catalog.NewLoader(nil)

	assert.ErrorIs(t, err, catalog.ErrNilSource)
	assert.Nil(t, loader)
}

func Test_Loader_Load_Success(t *testing.T) {
	// setup
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	tracingSpy := helper.NewTracingCollectorSpy(true)
	logSpy := helper.NewLogHandlerSpy(false)

	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return []catalog.Record{
			{ID: "1", Title: "Dune", Author: "Herbert"},
			{ID: "2", Title: "Emma", Author: "Austen", Available: catalog.Availability(false)},
		}, nil
	})

	loader, err := catalog.NewLoader(
		source,
		catalog.WithLogger(slog.New(logSpy)),
		catalog.WithMetrics(metricsSpy),
		catalog.WithTracing(tracingSpy),
	)
	require.NoError(t, err)

	// act
	loader.Load(context.Background())

	// assert
	books := loader.Books()
	require.Len(t, books, 2)
	assert.True(t, books[0].Available)
	assert.False(t, books[1].Available)
	assert.True(t, loader.Loaded())
	assert.False(t, loader.Loading(), "loading indicator should be cleared after success")

	book, found := loader.Find("2")
	assert.True(t, found)
	assert.Equal(t, "Emma", book.Title)

	_, found = loader.Find("404")
	assert.False(t, found)

	assert.True(t, metricsSpy.HasCounterRecordWithLabels(
		observability.OperationCallsMetric,
		observability.BuildOperationLabels("load_catalog", observability.StatusSuccess),
	))
	size, ok := metricsSpy.LastValue(observability.CatalogSizeMetric)
	assert.True(t, ok)
	assert.Equal(t, float64(2), size)
	assert.True(t, tracingSpy.HasFinishedSpanWithStatus("load_catalog", observability.StatusSuccess))
	assert.True(t, logSpy.HasInfoLogWithMessage("catalog loaded").WithAttribute("book_count", "2").Assert())
}

func Test_Loader_Load_Failure_IsLoggedAndSwallowed(t *testing.T) {
	// setup
	metricsSpy := helper.NewMetricsCollectorSpy(true)
	logSpy := helper.NewLogHandlerSpy(false)
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, errors.New("connection refused"))
	})

	loader, err := catalog.NewLoader(
		source,
		catalog.WithContextualLogger(slog.New(logSpy)),
		catalog.WithMetrics(metricsSpy),
	)
	require.NoError(t, err)

	// act
	loader.Load(context.Background())

	// assert
	assert.Empty(t, loader.Books(), "list should stay empty after a failed first load")
	assert.False(t, loader.Loaded())
	assert.False(t, loader.Loading(), "loading indicator should be cleared after failure")
	assert.True(t, logSpy.HasErrorLogWithMessage("catalog load failed").
		WithAttribute(observability.LogAttrOperation, "load_catalog").
		WithAttributeKey("error").Assert())
	assert.Equal(t, 1, logSpy.GetRecordCountWithLevel(slog.LevelError), "a failed load should be logged once")
	assert.False(t, logSpy.HasErrorLogWithMessage(observability.LogMsgOperationFailed).Assert())
	assert.True(t, metricsSpy.HasCounterRecordWithLabels(
		observability.OperationCallsMetric,
		observability.BuildOperationLabels("load_catalog", observability.StatusError),
	))
}

func Test_Loader_Load_FailureKeepsPriorList(t *testing.T) {
	// setup
	var calls atomic.Int32
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		if calls.Add(1) == 1 {
			return []catalog.Record{{ID: "1", Title: "Dune"}}, nil
		}

		return nil, catalog.ErrFetchingCatalogFailed
	})

	loader, err := catalog.NewLoader(source)
	require.NoError(t, err)

	// act
	loader.Load(context.Background())
	loader.Load(context.Background())

	// assert
	assert.Equal(t, int32(2), calls.Load(), "each Load should make exactly one attempt")
	require.Len(t, loader.Books(), 1)
	assert.True(t, loader.Loaded())
}

func Test_Loader_Loading_IsTrueWhileFetching(t *testing.T) {
	// setup
	entered := make(chan struct{})
	release := make(chan struct{})
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		close(entered)
		<-release

		return nil, nil
	})

	loader, err := catalog.NewLoader(source)
	require.NoError(t, err)

	done := make(chan struct{})

	// act
	go func() {
		loader.Load(context.Background())
		close(done)
	}()

	<-entered

	// assert
	assert.True(t, loader.Loading())
	close(release)
	<-done
	assert.False(t, loader.Loading())
}

func Test_Loader_BeginLoad_RaisesLoadingBeforeFetch(t *testing.T) {
	// setup
	var fetched atomic.Bool
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		fetched.Store(true)
		return []catalog.Record{{ID: "1", Title: "Dune"}}, nil
	})

	loader, err := catalog.NewLoader(source)
	require.NoError(t, err)

	// act
	load := loader.BeginLoad()

	// assert
	assert.True(t, loader.Loading(), "loading indicator should be raised before the fetch starts")
	assert.False(t, fetched.Load())

	load(context.Background())

	assert.True(t, fetched.Load())
	assert.False(t, loader.Loading())
	assert.True(t, loader.Loaded())
}

func Test_Loader_Books_ReturnsCopy(t *testing.T) {
	source := catalog.SourceFunc(func(_ context.Context) ([]catalog.Record, error) {
		return []catalog.Record{{ID: "1", Title: "Dune"}}, nil
	})
	loader, err := catalog.NewLoader(source)
	require.NoError(t, err)
	loader.Load(context.Background())

	books := loader.Books()
	books[0].Title = "changed"

	assert.Equal(t, "Dune", loader.Books()[0].Title)
}
