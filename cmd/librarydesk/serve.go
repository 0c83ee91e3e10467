package main

import (
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-desk/config"
	"github.com/AntonStoeckl/library-desk/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the JSON API over one desk session",
		Long: `Start a desk session, load the catalog in the background and serve the JSON API
and the notification websocket until interrupted.`,
		RunE: a.runServe,
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.StringSlice("allowed-origins", nil, "host patterns allowed to open the notification websocket cross-origin")
	flags.Duration("notification-ttl", 0, "how long notifications stay visible")

	a.bindFlags(flags, map[string]string{
		"addr":             config.KeyServerAddr,
		"allowed-origins":  config.KeyServerAllowedOrigins,
		"notification-ttl": config.KeyNotificationTTL,
	})

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, a.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			rt.logger.Error("shutdown failed", "error", closeErr.Error())
		}
	}()

	// an unreachable catalog database leaves the session serving an empty catalog
	rt.lazyConnect = true

	desk, err := rt.newSession(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer desk.Close()

	if err := desk.Start(ctx); err != nil {
		return err
	}

	rt.logger.Info("session started", "session_id", desk.ID().String(), "source", a.cfg.Catalog.Source)

	srv := server.New(
		desk,
		server.WithLogger(rt.logger),
		server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...),
		server.WithShutdownTimeout(a.cfg.Server.ShutdownTimeout),
	)

	return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
}
