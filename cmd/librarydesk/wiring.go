package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/catalog/filesource"
	"github.com/AntonStoeckl/library-desk/catalog/httpsource"
	"github.com/AntonStoeckl/library-desk/catalog/pgsource"
	"github.com/AntonStoeckl/library-desk/config"
	"github.com/AntonStoeckl/library-desk/oteladapters"
	"github.com/AntonStoeckl/library-desk/session"
)

const (
	instrumentationName = "github.com/AntonStoeckl/library-desk"
	serviceVersion      = "dev"
)

var errUnsupportedSource = errors.New("unsupported catalog source")

// runtime holds everything a command built from the config and must release on exit.
type runtime struct {
	logger  *slog.Logger
	options []session.Option
	closers []func() error

	// lazyConnect opens database handles without a connection check,
	// leaving an unreachable database to the catalog load.
	lazyConnect bool
}

func (r *runtime) Close() error {
	var errs []error

	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}

	return errors.Join(errs...)
}

// newRuntime builds logging and, when enabled, OpenTelemetry export.
func newRuntime(ctx context.Context, cfg config.Config, logOutput io.Writer) (*runtime, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(logOutput, handlerOptions)
	if cfg.Log.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(logOutput, handlerOptions)
	}

	rt := &runtime{logger: slog.New(handler)}

	if !cfg.Telemetry.Enabled {
		rt.options = []session.Option{
			session.WithLogger(rt.logger),
			session.WithNotificationTTL(cfg.Notification.TTL),
		}

		return rt, nil
	}

	providers, err := oteladapters.NewProviders(ctx, oteladapters.ProvidersConfig{
		ServiceName:     cfg.Telemetry.ServiceName,
		ServiceVersion:  serviceVersion,
		Endpoint:        cfg.Telemetry.Endpoint,
		Insecure:        cfg.Telemetry.Insecure,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	rt.closers = append(rt.closers, providers.Shutdown)

	bridge := oteladapters.NewSlogBridgeLogger(instrumentationName, handler)
	rt.logger = bridge.Slog()
	rt.options = []session.Option{
		session.WithLogger(rt.logger),
		session.WithNotificationTTL(cfg.Notification.TTL),
		session.WithContextualLogger(bridge),
		session.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter(instrumentationName))),
		session.WithTracing(oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))),
	}

	return rt, nil
}

// newSource builds the configured catalog source. Database connections are released by rt.Close.
func (r *runtime) newSource(ctx context.Context, cfg config.Config) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.SourceHTTP:
		options := []httpsource.Option{httpsource.WithTimeout(cfg.Catalog.Timeout)}
		for key, value := range cfg.Catalog.Headers {
			options = append(options, httpsource.WithHeader(key, value))
		}

		return httpsource.New(cfg.Catalog.URL, options...)

	case config.SourceFile:
		var options []filesource.Option
		if cfg.Catalog.Format != "" {
			options = append(options, filesource.WithFormat(filesource.Format(cfg.Catalog.Format)))
		}

		return filesource.New(cfg.Catalog.Path, options...)

	case config.SourcePostgres:
		return r.newPostgresSource(ctx, cfg.Postgres)

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedSource, cfg.Catalog.Source)
	}
}

func (r *runtime) newPostgresSource(ctx context.Context, cfg config.PostgresConfig) (catalog.Source, error) {
	options := []pgsource.Option{pgsource.WithTableName(cfg.Table), pgsource.WithLogger(r.logger)}

	var openOptions []config.OpenOption
	if r.lazyConnect {
		openOptions = append(openOptions, config.WithoutPing())
	}

	switch cfg.Driver {
	case config.DriverSQL:
		db, err := cfg.OpenSQLDB(ctx, openOptions...)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, db.Close)

		return pgsource.NewFromSQLDB(db, options...)

	case config.DriverSQLX:
		db, err := cfg.OpenSQLX(ctx, openOptions...)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, db.Close)

		return pgsource.NewFromSQLX(db, options...)

	default:
		pool, err := cfg.OpenPGXPool(ctx, openOptions...)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, func() error {
			pool.Close()
			return nil
		})

		return pgsource.NewFromPGXPool(pool, options...)
	}
}

// newSession builds the source and a session over it. The session is not started.
func (r *runtime) newSession(ctx context.Context, cfg config.Config) (*session.Session, error) {
	source, err := r.newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return session.New(source, r.options...)
}
