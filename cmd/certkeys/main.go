// Command certkeys publica las validation keys del certificado de firma
// activo y trae utilidades para inspeccionar la colección de certificados.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// version se pisa en build con -ldflags "-X main.version=...".
var version = "dev"

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	// .env es opcional
	_ = godotenv.Load()

	cfgPath := envOr("CERTKEYS_CONFIG", "config.yaml")

	root := &cobra.Command{
		Use:           "certkeys",
		Short:         "Credencial de firma rotativa respaldada por un repositorio de certificados",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Ruta del config.yaml (env CERTKEYS_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config inválida: %w", err)
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "certkeys", Version: version})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newInspectCmd(load),
		newDevCertCmd(load),
		newEncryptCmd(),
	)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
