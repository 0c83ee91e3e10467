package catalog

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-desk/observability"
)

const (
	operationLoadCatalog = "load_catalog"

	logMsgCatalogLoaded     = "catalog loaded"
	logMsgCatalogLoadFailed = "catalog load failed"

	logAttrBookCount = "book_count"
)

// Source retrieves the raw catalog records.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Record, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// Loader holds the catalog of a session.
// It is safe for concurrent use; Books and Find never block on an in-flight Load.
type Loader struct {
	source      Source
	instruments observability.Instruments

	mu      sync.RWMutex
	books   []Book
	index   map[BookID]int
	loading bool
	loaded  bool
}

// Option defines a functional option for configuring a Loader.
type Option func(*Loader) error

// WithLogger sets the logger for the Loader.
func WithLogger(logger observability.Logger) Option {
	return func(l *Loader) error {
		l.instruments.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the context-aware logger for the Loader.
// It takes precedence over the logger set with WithLogger.
func WithContextualLogger(logger observability.ContextualLogger) Option {
	return func(l *Loader) error {
		l.instruments.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Loader.
func WithMetrics(collector observability.MetricsCollector) Option {
	return func(l *Loader) error {
		l.instruments.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Loader.
func WithTracing(collector observability.TracingCollector) Option {
	return func(l *Loader) error {
		l.instruments.Tracing = collector
		return nil
	}
}

// NewLoader creates a Loader for the given source. Nothing is fetched until Load is called.
func NewLoader(source Source, options ...Option) (*Loader, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	loader := &Loader{
		source: source,
		books:  make([]Book, 0),
		index:  make(map[BookID]int),
	}

	for _, option := range options {
		if err := option(loader); err != nil {
			return nil, err
		}
	}

	return loader, nil
}

// Load fetches the catalog once. There is no retry.
//
// On success the list is replaced by the normalized records.
// On failure the error is logged and the list keeps its prior state.
// The loading indicator is true for the duration of the call on both paths.
func (l *Loader) Load(ctx context.Context) {
	l.BeginLoad()(ctx)
}

// BeginLoad raises the loading indicator and returns the function performing the fetch.
// The returned function lowers the indicator when it finishes and must be called exactly once.
// It lets a caller run the fetch in another goroutine while Loading already reports true.
func (l *Loader) BeginLoad() func(ctx context.Context) {
	l.setLoading(true)

	return l.load
}

func (l *Loader) load(ctx context.Context) {
	defer l.setLoading(false)

	ctx, operation := l.instruments.Start(ctx, operationLoadCatalog)

	records, err := l.source.Fetch(ctx)
	if err != nil {
		operation.FailWithMessage(logMsgCatalogLoadFailed, err)

		return
	}

	books := Normalize(records)
	index := make(map[BookID]int, len(books))

	for i, book := range books {
		if _, exists := index[book.ID]; !exists {
			index[book.ID] = i
		}
	}

	l.mu.Lock()
	l.books = books
	l.index = index
	l.loaded = true
	l.mu.Unlock()

	operation.Succeed(observability.StatusSuccess)
	observability.RecordValue(ctx, l.instruments.Metrics, observability.CatalogSizeMetric, float64(len(books)), nil)
	l.logSuccess(ctx, len(books))
}

// Books returns a copy of the current list in source order.
func (l *Loader) Books() []Book {
	l.mu.RLock()
	defer l.mu.RUnlock()

	books := make([]Book, len(l.books))
	copy(books, l.books)

	return books
}

// Find returns the first book with the given id.
func (l *Loader) Find(id BookID) (Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[id]
	if !ok {
		return Book{}, false
	}

	return l.books[i], true
}

// Loading reports whether a Load is in progress.
func (l *Loader) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.loading
}

// Loaded reports whether at least one Load succeeded.
func (l *Loader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.loaded
}

func (l *Loader) setLoading(loading bool) {
	l.mu.Lock()
	l.loading = loading
	l.mu.Unlock()
}

func (l *Loader) logSuccess(ctx context.Context, count int) {
	if l.instruments.ContextualLogger != nil {
		l.instruments.ContextualLogger.InfoContext(ctx, logMsgCatalogLoaded, logAttrBookCount, count)
	} else if l.instruments.Logger != nil {
		l.instruments.Logger.Info(logMsgCatalogLoaded, logAttrBookCount, count)
	}
}
