package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-desk/catalog"
	"github.com/AntonStoeckl/library-desk/catalog/pgsource"
)

var errNoSeedOutput = errors.New("at least one of --csv and --sql is required")

type seedOptions struct {
	csvPath string
	sqlPath string
}

func newSeedCmd(a *app) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Export the catalog as circulation events for the postgres source",
		Long: `Load the catalog from the configured source and write it as circulation events,
as CSV for COPY and/or as an INSERT statement for the postgres events table.
Books marked unavailable are followed by a BookCopyLentToReader event.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write the events as CSV to this file")
	cmd.Flags().StringVar(&opts.sqlPath, "sql", "", "write the events as an INSERT statement to this file")

	return cmd
}

func (a *app) runSeed(cmd *cobra.Command, opts *seedOptions) error {
	if opts.csvPath == "" && opts.sqlPath == "" {
		return errNoSeedOutput
	}

	ctx := cmd.Context()

	rt, err := newRuntime(ctx, a.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	desk, err := rt.newSession(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer desk.Close()

	if err := desk.Start(ctx); err != nil {
		return err
	}

	if err := desk.WaitLoaded(ctx); err != nil {
		return err
	}

	if !desk.Status().Loaded {
		return errCatalogNotLoaded
	}

	books := desk.Books()
	catalogBooks := make([]catalog.Book, 0, len(books))
	for _, book := range books {
		catalogBooks = append(catalogBooks, book.Book)
	}

	events, err := pgsource.BuildFixtureEvents(catalogBooks, time.Now().UTC())
	if err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error {
			return pgsource.WriteFixturesCSV(w, events)
		}); err != nil {
			return err
		}
	}

	if opts.sqlPath != "" {
		sqlQuery, err := pgsource.BuildFixturesInsertSQL(a.cfg.Postgres.Table, events)
		if err != nil {
			return err
		}

		if err := writeFile(opts.sqlPath, func(w io.Writer) error {
			_, err := io.WriteString(w, sqlQuery+";\n")
			return err
		}); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully generated %d events for %d books\n", len(events), len(books))

	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}
