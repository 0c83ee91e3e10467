package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-desk/session"
)

var errCatalogNotLoaded = errors.New("catalog could not be loaded")

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"c"},
		Short:   "Load the catalog once and print it",
		RunE:    a.runCatalog,
	}
}

func (a *app) runCatalog(cmd *cobra.Command, _ []string) error {
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

	return printBooks(cmd.OutOrStdout(), desk.Books())
}

func printBooks(out io.Writer, books []session.BookView) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tSTATUS")

	for _, book := range books {
		status := "available"
		if book.Borrowed {
			status = "unavailable"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", book.ID, book.Title, book.Author, status)
	}

	return w.Flush()
}
