package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/certkeys/internal/bootstrap"
	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

func newDevCertCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		cn   string
		alg  string
		days int
		dir  string
	)
	cmd := &cobra.Command{
		Use:   "dev-cert",
		Short: "Genera un certificado autofirmado en la colección (solo desarrollo)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cn == "" {
				if cn, err = bootstrap.ResolveIdentity(cfg); err != nil {
					return err
				}
			}
			if alg == "" {
				alg = cfg.Certificates.SigningAlgorithm
			}
			if dir == "" {
				src, err := bootstrap.NewSource(cfg, logger.Named("dev-cert"))
				if err != nil {
					return err
				}
				dir = src.Dir()
			}
			if days <= 0 {
				return fmt.Errorf("--days debe ser > 0")
			}

			key, err := certs.KeyForAlgorithm(alg)
			if err != nil {
				return err
			}
			now := time.Now()
			c, err := certs.SelfSigned(certs.SelfSignedOptions{
				CommonName: cn,
				NotBefore:  now.Add(-time.Minute),
				NotAfter:   now.Add(time.Duration(days) * 24 * time.Hour),
				Key:        key,
			})
			if err != nil {
				return err
			}
			// un archivo por certificado: el stem lleva la fecha para no pisar el anterior
			stem := fmt.Sprintf("%s-%s", cn, now.UTC().Format("20060102T150405"))
			path, err := certs.WriteKeyPair(dir, stem, c)
			if err != nil {
				return err
			}
			logger.Named("dev-cert").Info("self-signed certificate written",
				logger.Subject(c.Subject),
				logger.Thumbprint(c.Thumbprint),
				logger.Expiration(c.NotAfter),
				logger.String("path", path),
			)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&cn, "cn", "", "Common name (default: identidad configurada)")
	cmd.Flags().StringVar(&alg, "alg", "", "Algoritmo de firma para elegir el tipo de clave (default: certificates.signing_algorithm)")
	cmd.Flags().IntVar(&days, "days", 90, "Días de validez")
	cmd.Flags().StringVar(&dir, "dir", "", "Directorio destino (default: la colección configurada)")
	return cmd
}
