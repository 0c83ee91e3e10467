package config

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const postgresDriverName = "postgres"

// OpenOption adjusts how the Open* helpers connect.
type OpenOption func(*openOptions)

type openOptions struct {
	ping bool
}

// WithoutPing skips the connection check after opening.
// The handle connects on first use, so an unreachable database is reported by the first query.
func WithoutPing() OpenOption {
	return func(o *openOptions) {
		o.ping = false
	}
}

func buildOpenOptions(opts []OpenOption) openOptions {
	o := openOptions{ping: true}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// PGXPoolConfig creates a pgxpool.Config from the DSN and pool settings.
func (p PostgresConfig) PGXPoolConfig() (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(p.DSN)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	dbConfig.MaxConns = p.MaxConns
	dbConfig.MinConns = p.MinConns
	dbConfig.MaxConnLifetime = p.MaxConnLifetime
	dbConfig.MaxConnIdleTime = p.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = p.HealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = p.ConnectTimeout

	return dbConfig, nil
}

// OpenPGXPool creates a pgxpool.Pool and, unless WithoutPing is given, checks the connection.
func (p PostgresConfig) OpenPGXPool(ctx context.Context, opts ...OpenOption) (*pgxpool.Pool, error) {
	dbConfig, err := p.PGXPoolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	if !buildOpenOptions(opts).ping {
		return pool, nil
	}

	if pingErr := p.ping(ctx, pool.Ping); pingErr != nil {
		pool.Close()
		return nil, pingErr
	}

	return pool, nil
}

// OpenSQLDB opens a *sql.DB on the lib/pq driver with the pool settings applied
// and, unless WithoutPing is given, checks the connection.
func (p PostgresConfig) OpenSQLDB(ctx context.Context, opts ...OpenOption) (*sql.DB, error) {
	db, err := sql.Open(postgresDriverName, p.DSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	p.configurePool(db)

	if !buildOpenOptions(opts).ping {
		return db, nil
	}

	if pingErr := p.ping(ctx, db.PingContext); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// OpenSQLX opens a *sqlx.DB on the lib/pq driver with the pool settings applied
// and, unless WithoutPing is given, checks the connection.
func (p PostgresConfig) OpenSQLX(ctx context.Context, opts ...OpenOption) (*sqlx.DB, error) {
	db, err := sqlx.Open(postgresDriverName, p.DSN)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	p.configurePool(db.DB)

	if !buildOpenOptions(opts).ping {
		return db, nil
	}

	if pingErr := p.ping(ctx, db.PingContext); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

func (p PostgresConfig) configurePool(db *sql.DB) {
	db.SetMaxOpenConns(int(p.MaxConns))
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.MaxConnLifetime)
	db.SetConnMaxIdleTime(p.MaxConnIdleTime)
}

func (p PostgresConfig) ping(ctx context.Context, ping func(context.Context) error) error {
	if p.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ConnectTimeout)
		defer cancel()
	}

	if err := ping(ctx); err != nil {
		return errors.Join(ErrPingingDatabaseFailed, err)
	}

	return nil
}
