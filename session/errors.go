package session

import "errors"

// ErrBookNotFound is returned when a book id is not in the catalog.
var ErrBookNotFound = errors.New("book not found in catalog")

// ErrBookNotAvailable is returned by TryBorrow when the book is borrowed or marked unavailable.
var ErrBookNotAvailable = errors.New("book is not available")

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("session already started")

// ErrSessionClosed is returned when a closed session is started.
var ErrSessionClosed = errors.New("session is closed")
