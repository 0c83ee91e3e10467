// Package httpsource fetches the catalog as a JSON array from an HTTP endpoint.
//
// The payload is a list of objects with the fields id, title, author and the optional available:
//
//	[{"id": 1, "title": "A", "author": "X", "available": false}]
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-desk/catalog"
)

// ErrEmptyURL is returned by New when no URL was supplied.
var ErrEmptyURL = errors.New("empty catalog url supplied")

// ErrNilHTTPClient is returned by WithHTTPClient when a nil client was supplied.
var ErrNilHTTPClient = errors.New("nil http client supplied")

// ErrUnexpectedStatus is joined into fetch errors for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected http status")

const maxErrorBodyBytes = 512

// Source is a catalog.Source reading from an HTTP endpoint.
type Source struct {
	url     string
	client  *http.Client
	timeout time.Duration
	headers http.Header
}

// Option defines a functional option for configuring a Source.
type Option func(*Source) error

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) error {
		if client == nil {
			return ErrNilHTTPClient
		}

		s.client = client

		return nil
	}
}

// WithTimeout bounds each fetch. Zero means no timeout beyond the caller's context.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Source) error {
		s.timeout = timeout
		return nil
	}
}

// WithHeader adds a request header, for example an Authorization header.
func WithHeader(key, value string) Option {
	return func(s *Source) error {
		s.headers.Add(key, value)
		return nil
	}
}

// New creates a Source for the given URL.
func New(url string, options ...Option) (*Source, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	source := &Source{
		url:     url,
		client:  http.DefaultClient,
		headers: make(http.Header),
	}

	for _, option := range options {
		if err := option(source); err != nil {
			return nil, err
		}
	}

	return source, nil
}

// Fetch performs a single GET request and decodes the response body.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Record, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, err)
	}

	req.Header = s.headers.Clone()
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Join(catalog.ErrFetchingCatalogFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, errors.Join(
			catalog.ErrFetchingCatalogFailed,
			fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, s.url, body),
		)
	}

	var records []catalog.Record
	if err := jsoniter.ConfigFastest.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, errors.Join(catalog.ErrDecodingCatalogFailed, err)
	}

	return records, nil
}
