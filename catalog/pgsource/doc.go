// Package pgsource derives the catalog from the circulation event log of a PostgreSQL event store.
//
// The events table holds one row per event with the columns event_type, occurred_at, payload (jsonb)
// and sequence_number. Only the four circulation event types are read, in sequence order:
//
//   - BookCopyAddedToCirculation adds a book (BookID, Title, Authors from the payload)
//   - BookCopyRemovedFromCirculation removes it
//   - BookCopyLentToReader marks it unavailable
//   - BookCopyReturnedByReader marks it available again
//
// The source works with pgxpool.Pool, database/sql (lib/pq) and sqlx.DB connections.
package pgsource
