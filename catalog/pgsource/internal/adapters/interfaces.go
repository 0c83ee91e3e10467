package adapters

import "context"

// DBAdapter defines the interface for the database operations needed by the catalog source.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}
