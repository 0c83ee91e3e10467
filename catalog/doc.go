// Package catalog loads the list of books a session works with.
//
// A Loader fetches the catalog from a Source exactly once per call to Load, normalizes the records
// (a missing availability flag means the book is available), and exposes the result read-only.
// Fetch failures are logged and swallowed: the previously loaded list stays in place.
//
// Sources live in subpackages:
//
//   - httpsource: a JSON array served over HTTP
//   - filesource: a local JSON or YAML file
//   - pgsource: the circulation event log of a PostgreSQL event store
package catalog
