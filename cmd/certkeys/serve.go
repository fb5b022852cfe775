package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/certkeys/internal/app"
	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP (JWKS, /v1/keys, health, métricas)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logger.Named("certkeys")
			ctr, err := app.New(ctx, cfg, app.Options{Version: version, Logger: log})
			if err != nil {
				// sin credencial utilizable no arrancamos
				log.Error("startup failed", logger.Err(err))
				return err
			}
			return ctr.Run(ctx)
		},
	}
}

