package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/certkeys/internal/bootstrap"
	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/credential"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

type candidateReport struct {
	Thumbprint string    `json:"thumbprint"`
	Subject    string    `json:"subject"`
	NotBefore  time.Time `json:"not_before"`
	NotAfter   time.Time `json:"not_after"`
	Origin     string    `json:"origin"`
	Live       bool      `json:"live"`
	Accepted   bool      `json:"accepted"`
	KeyID      string    `json:"kid,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

func newInspectCmd(load func() (*config.Config, error)) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Lista los certificados candidatos y el veredicto de la política de firma",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			identity, err := bootstrap.ResolveIdentity(cfg)
			if err != nil {
				return err
			}
			policy, err := credential.NewPolicy(cfg.Certificates.SigningAlgorithm)
			if err != nil {
				return err
			}
			src, err := bootstrap.NewSource(cfg, logger.Named("inspect"))
			if err != nil {
				return err
			}
			found, err := src.FindBySubjectName(cmd.Context(), identity)
			if err != nil {
				return err
			}

			now := time.Now()
			reports := make([]candidateReport, 0, len(found))
			for _, c := range found {
				r := candidateReport{
					Thumbprint: c.Thumbprint,
					Subject:    c.Subject,
					NotBefore:  c.NotBefore.UTC(),
					NotAfter:   c.NotAfter.UTC(),
					Origin:     c.Origin,
					Live:       c.Live(now),
				}
				cred, err := policy.Accept(c)
				switch {
				case err == nil:
					r.Accepted, r.KeyID = true, cred.KeyID
				default:
					var pe *credential.PolicyError
					if errors.As(err, &pe) {
						r.Reason = pe.Reason
					} else {
						r.Reason = err.Error()
					}
				}
				reports = append(reports, r)
			}

			if out == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"identity":   identity,
					"algorithm":  policy.Algorithm(),
					"collection": src.Dir(),
					"candidates": reports,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "identity=%s alg=%s collection=%s\n", identity, policy.Algorithm(), src.Dir())
			if len(reports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "sin candidatos")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "THUMBPRINT\tSUBJECT\tNOT AFTER\tLIVE\tVERDICT")
			for _, r := range reports {
				verdict := "accepted"
				if !r.Accepted {
					verdict = "rejected: " + r.Reason
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", r.Thumbprint, r.Subject, r.NotAfter.Format(time.RFC3339), r.Live, verdict)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&out, "out", envOr("CERTKEYS_OUT", "text"), "Formato de salida: json|text")
	return cmd
}
