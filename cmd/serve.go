package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest the docs folder and start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http_addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, cleanup, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := serveAddr
	if addr == "" {
		addr = a.Config.HTTPAddr
	}

	srv := api.NewServer(api.ServerConfig{
		Logger:   a.Logger,
		Answerer: a.Orchestrator,
		Stats:    a.Store,
		Sessions: a.Sessions,
	})
	return srv.Run(ctx, addr)
}
