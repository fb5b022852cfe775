package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/certkeys/internal/security/secretbox"
)

func newEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [secret]",
		Short: "Cifra un secreto (p. ej. el password de los PFX) con SECRETBOX_MASTER_KEY",
		Long:  "Imprime el valor listo para certificates.pfx_password (\"enc:...\"). Sin argumento lee la primera línea de stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := secretbox.FromEnv()
			if err != nil {
				return err
			}
			var plain string
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("leer stdin: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			if plain == "" {
				return fmt.Errorf("secreto vacío")
			}
			ct, err := box.Encrypt(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secretbox.Prefix+ct)
			return nil
		},
	}
}
