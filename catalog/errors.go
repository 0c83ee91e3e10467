package catalog

import "errors"

// ErrFetchingCatalogFailed is returned by sources when the catalog could not be retrieved.
var ErrFetchingCatalogFailed = errors.New("fetching catalog failed")

// ErrDecodingCatalogFailed is returned by sources when the retrieved catalog could not be decoded.
var ErrDecodingCatalogFailed = errors.New("decoding catalog failed")

// ErrNilSource is returned by NewLoader when no source was supplied.
var ErrNilSource = errors.New("nil catalog source supplied")

// ErrInvalidBookID is returned when a book id is neither a JSON string nor a JSON number.
var ErrInvalidBookID = errors.New("book id must be a string or a number")
