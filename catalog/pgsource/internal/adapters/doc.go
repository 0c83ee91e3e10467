// Package adapters provides read-only database adapters for the PostgreSQL catalog source.
//
// pgxpool.Pool, sql.DB and sqlx.DB are wrapped behind the common DBAdapter interface,
// so the source can run its query without knowing which library the caller connected with.
package adapters
