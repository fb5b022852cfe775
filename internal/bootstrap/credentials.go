// Package bootstrap arma el keystore a partir de la configuración y falla
// rápido si no hay una credencial de firma utilizable.
package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/credential"
	"github.com/dropDatabas3/certkeys/internal/keystore"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// IdentityFromIssuer devuelve el host del issuer (sin puerto), que es el
// nombre con el que se busca el certificado.
func IdentityFromIssuer(issuer string) (string, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return "", fmt.Errorf("%w: empty issuer", keystore.ErrConfiguration)
	}
	u, err := url.Parse(issuer)
	if err != nil {
		return "", fmt.Errorf("%w: issuer %q: %v", keystore.ErrConfiguration, issuer, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: issuer %q is not an absolute URL", keystore.ErrConfiguration, issuer)
	}
	return strings.ToLower(u.Hostname()), nil
}

// ResolveIdentity: certificates.identity si está, si no el host de jwt.issuer.
func ResolveIdentity(cfg *config.Config) (string, error) {
	if id := strings.TrimSpace(cfg.Certificates.Identity); id != "" {
		return id, nil
	}
	return IdentityFromIssuer(cfg.JWT.Issuer)
}

// NewSource arma el DirSource de la colección configurada.
func NewSource(cfg *config.Config, log *zap.Logger) (*certs.DirSource, error) {
	pw, err := cfg.PFXPassword()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keystore.ErrConfiguration, err)
	}
	return certs.NewDirSource(cfg.Certificates.Root, cfg.Certificates.StoreName,
		certs.WithPFXPassword(pw),
		certs.WithLogger(logger.OrNamed(log, "certs").Named("dir")),
	), nil
}

// NewCredentialStore arma source + política + keystore y hace el primer
// refresh. Errores: keystore.ErrConfiguration, credential.ErrUnsupportedAlgorithm
// o keystore.ErrNoAcceptableCertificate.
func NewCredentialStore(ctx context.Context, cfg *config.Config, src certs.Source, log *zap.Logger) (*keystore.Store, error) {
	identity, err := ResolveIdentity(cfg)
	if err != nil {
		return nil, err
	}
	policy, err := credential.NewPolicy(cfg.Certificates.SigningAlgorithm)
	if err != nil {
		return nil, err
	}
	mode, err := keystore.ParseRefreshMode(cfg.Certificates.RefreshMode)
	if err != nil {
		return nil, err
	}

	log = logger.OrNamed(log, "bootstrap")
	log.Info("loading signing certificate",
		logger.Identity(identity),
		logger.Algorithm(policy.Algorithm()),
		logger.String("refresh_mode", string(mode)),
	)

	return keystore.New(ctx, src, policy, keystore.Options{
		Identity:     identity,
		Mode:         mode,
		RefreshEvery: cfg.RefreshInterval(),
		QueryTimeout: cfg.QueryTimeout(),
		Logger:       log.Named("keystore"),
	})
}
