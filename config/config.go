package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "LIBRARYDESK"
	EnvConfigFile = "LIBRARYDESK_CONFIG"

	configName     = ".librarydesk"
	configType     = "yaml"
	defaultTimeout = 10 * time.Second
)

// Catalog source types.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Postgres drivers.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Keys of all settings, usable with viper.BindPFlag.
const (
	KeyCatalogSource  = "catalog.source"
	KeyCatalogURL     = "catalog.url"
	KeyCatalogPath    = "catalog.path"
	KeyCatalogFormat  = "catalog.format"
	KeyCatalogTimeout = "catalog.timeout"
	KeyCatalogHeaders = "catalog.headers"

	KeyPostgresDSN               = "postgres.dsn"
	KeyPostgresDriver            = "postgres.driver"
	KeyPostgresTable             = "postgres.table"
	KeyPostgresMaxConns          = "postgres.max_conns"
	KeyPostgresMinConns          = "postgres.min_conns"
	KeyPostgresMaxIdleConns      = "postgres.max_idle_conns"
	KeyPostgresMaxConnLifetime   = "postgres.max_conn_lifetime"
	KeyPostgresMaxConnIdleTime   = "postgres.max_conn_idle_time"
	KeyPostgresHealthCheckPeriod = "postgres.health_check_period"
	KeyPostgresConnectTimeout    = "postgres.connect_timeout"

	KeyServerAddr            = "server.addr"
	KeyServerAllowedOrigins  = "server.allowed_origins"
	KeyServerShutdownTimeout = "server.shutdown_timeout"

	KeyNotificationTTL = "notification.ttl"

	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"

	KeyTelemetryEnabled         = "telemetry.enabled"
	KeyTelemetryEndpoint        = "telemetry.endpoint"
	KeyTelemetryInsecure        = "telemetry.insecure"
	KeyTelemetryServiceName     = "telemetry.service_name"
	KeyTelemetryMetricsInterval = "telemetry.metrics_interval"
)

// Config is the complete librarydesk configuration.
type Config struct {
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Server       ServerConfig       `mapstructure:"server"`
	Notification NotificationConfig `mapstructure:"notification"`
	Log          LogConfig          `mapstructure:"log"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
}

// CatalogConfig selects and configures the catalog source.
type CatalogConfig struct {
	Source  string            `mapstructure:"source"`
	URL     string            `mapstructure:"url"`
	Path    string            `mapstructure:"path"`
	Format  string            `mapstructure:"format"` // json or yaml, empty to detect from the extension
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

// PostgresConfig configures the connection of the postgres catalog source.
// MaxConns, MinConns and HealthCheckPeriod apply to pgxpool, MaxConns and MaxIdleConns to database/sql and sqlx.
type PostgresConfig struct {
	DSN               string        `mapstructure:"dsn"`
	Driver            string        `mapstructure:"driver"`
	Table             string        `mapstructure:"table"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type NotificationConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig enables export of traces, metrics and logs to an OTLP gRPC collector.
type TelemetryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Insecure        bool          `mapstructure:"insecure"`
	ServiceName     string        `mapstructure:"service_name"`
	MetricsInterval time.Duration `mapstructure:"metrics_interval"`
}

// SetDefaults registers the defaults of all keys on v.
// Every key needs a default so that environment variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyCatalogSource, SourceHTTP)
	v.SetDefault(KeyCatalogURL, "")
	v.SetDefault(KeyCatalogPath, "")
	v.SetDefault(KeyCatalogFormat, "")
	v.SetDefault(KeyCatalogTimeout, defaultTimeout)
	v.SetDefault(KeyCatalogHeaders, map[string]string{})

	v.SetDefault(KeyPostgresDSN, "")
	v.SetDefault(KeyPostgresDriver, DriverPGX)
	v.SetDefault(KeyPostgresTable, "events")
	v.SetDefault(KeyPostgresMaxConns, 8)
	v.SetDefault(KeyPostgresMinConns, 2)
	v.SetDefault(KeyPostgresMaxIdleConns, 10)
	v.SetDefault(KeyPostgresMaxConnLifetime, time.Hour)
	v.SetDefault(KeyPostgresMaxConnIdleTime, 5*time.Minute)
	v.SetDefault(KeyPostgresHealthCheckPeriod, time.Minute)
	v.SetDefault(KeyPostgresConnectTimeout, 5*time.Second)

	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyServerAllowedOrigins, []string{})
	v.SetDefault(KeyServerShutdownTimeout, 10*time.Second)

	v.SetDefault(KeyNotificationTTL, 3*time.Second)

	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, LogFormatText)

	v.SetDefault(KeyTelemetryEnabled, false)
	v.SetDefault(KeyTelemetryEndpoint, "")
	v.SetDefault(KeyTelemetryInsecure, true)
	v.SetDefault(KeyTelemetryServiceName, "librarydesk")
	v.SetDefault(KeyTelemetryMetricsInterval, 15*time.Second)
}

// NewViper returns a viper instance with defaults and LIBRARYDESK_ environment overrides,
// e.g. LIBRARYDESK_CATALOG_URL for catalog.url.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile reads the config file into v. An explicit path must exist.
// Without one, .librarydesk.yaml is searched in the working directory and its absence is not an error.
// It returns the file used, empty if none.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType(configType)
		v.SetConfigName(configName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return "", nil
		}

		return "", errors.Join(ErrReadingConfigFailed, err)
	}

	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Join(ErrDecodingConfigFailed, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings the selected catalog source and the enabled features need.
func (c Config) Validate() error {
	var errs []error

	switch c.Catalog.Source {
	case SourceHTTP:
		if c.Catalog.URL == "" {
			errs = append(errs, fmt.Errorf("%s is required for source %q", KeyCatalogURL, SourceHTTP))
		}
	case SourceFile:
		if c.Catalog.Path == "" {
			errs = append(errs, fmt.Errorf("%s is required for source %q", KeyCatalogPath, SourceFile))
		}
		if c.Catalog.Format != "" && c.Catalog.Format != "json" && c.Catalog.Format != "yaml" {
			errs = append(errs, fmt.Errorf("%s must be json or yaml, got %q", KeyCatalogFormat, c.Catalog.Format))
		}
	case SourcePostgres:
		errs = append(errs, c.Postgres.validate()...)
	default:
		errs = append(errs, fmt.Errorf("%s must be one of http, file, postgres, got %q", KeyCatalogSource, c.Catalog.Source))
	}

	if c.Catalog.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyCatalogTimeout))
	}

	if c.Notification.TTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyNotificationTTL))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.Log.Format))
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("%s is required when telemetry is enabled", KeyTelemetryEndpoint))
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
}

func (p PostgresConfig) validate() []error {
	var errs []error

	if p.DSN == "" {
		errs = append(errs, fmt.Errorf("%s is required for source %q", KeyPostgresDSN, SourcePostgres))
	}

	switch p.Driver {
	case DriverPGX, DriverSQL, DriverSQLX:
	default:
		errs = append(errs, fmt.Errorf("%s must be one of pgx, sql, sqlx, got %q", KeyPostgresDriver, p.Driver))
	}

	if p.Table == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyPostgresTable))
	}

	if p.MaxConns <= 0 || p.MinConns < 0 || p.MinConns > p.MaxConns {
		errs = append(errs, fmt.Errorf("%s and %s must satisfy 0 <= min <= max, max > 0", KeyPostgresMinConns, KeyPostgresMaxConns))
	}

	return errs
}

// SlogLevel parses the level name (debug, info, warn, error).
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	return level, nil
}
