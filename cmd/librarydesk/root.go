package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AntonStoeckl/library-desk/config"
)

// app carries the viper instance shared by all commands of one invocation.
type app struct {
	viper   *viper.Viper
	cfgFile string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{viper: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "librarydesk",
		Short: "Browse a library catalog, borrow and return books",
		Long: `librarydesk loads a library catalog once from an HTTP endpoint, a JSON/YAML file
or a Postgres circulation event log, and keeps the borrowed books of one session in memory.

  librarydesk serve      Run the JSON API and the notification websocket
  librarydesk catalog    Load the catalog once and print it
  librarydesk seed       Export the catalog as circulation events for the postgres source`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .librarydesk.yaml, can also use LIBRARYDESK_CONFIG env var)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", config.LogFormatText, "log format (text, json)")
	flags.String("source", config.SourceHTTP, "catalog source (http, file, postgres)")
	flags.String("catalog-url", "", "catalog URL for the http source")
	flags.String("catalog-path", "", "catalog file for the file source")
	flags.Duration("catalog-timeout", 0, "timeout of the catalog request for the http source")
	flags.String("postgres-dsn", "", "Postgres DSN for the postgres source")
	flags.String("postgres-driver", config.DriverPGX, "Postgres driver (pgx, sql, sqlx)")
	flags.String("postgres-table", "", "event table for the postgres source")

	a.bindFlags(flags, map[string]string{
		"log-level":       config.KeyLogLevel,
		"log-format":      config.KeyLogFormat,
		"source":          config.KeyCatalogSource,
		"catalog-url":     config.KeyCatalogURL,
		"catalog-path":    config.KeyCatalogPath,
		"catalog-timeout": config.KeyCatalogTimeout,
		"postgres-dsn":    config.KeyPostgresDSN,
		"postgres-driver": config.KeyPostgresDriver,
		"postgres-table":  config.KeyPostgresTable,
	})

	rootCmd.AddCommand(newServeCmd(a), newCatalogCmd(a), newSeedCmd(a))

	return rootCmd
}

// bindFlags binds flags to config keys. A bound flag only overrides file and environment when set.
func (a *app) bindFlags(flags *pflag.FlagSet, keysByFlag map[string]string) {
	for name, key := range keysByFlag {
		if err := a.viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// initConfig reads the config file named by --config, then LIBRARYDESK_CONFIG, then .librarydesk.yaml.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	path := a.cfgFile
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}

	used, err := config.ReadFile(a.viper, path)
	if err != nil {
		return err
	}

	if used != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", used)
	}

	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}

	a.cfg = cfg

	return nil
}
