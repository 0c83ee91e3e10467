// Package config loads the librarydesk configuration with viper from a YAML file,
// LIBRARYDESK_ environment variables and bound command-line flags, in that order of
// increasing precedence, on top of built-in defaults.
//
// It also builds the Postgres connections the pgsource catalog source needs,
// for pgxpool, database/sql and sqlx.
package config
