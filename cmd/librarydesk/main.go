// Command librarydesk serves a library desk session over HTTP or prints the catalog.
//
// Configuration is read from .librarydesk.yaml (or --config / LIBRARYDESK_CONFIG),
// LIBRARYDESK_<SECTION>_<KEY> environment variables and flags, flags taking precedence.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
