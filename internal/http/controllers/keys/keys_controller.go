// Package keys contiene los controllers que publican las validation keys:
// el JWKS estándar y un listado con metadatos de certificado.
package keys

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/certkeys/internal/credential"
	dto "github.com/dropDatabas3/certkeys/internal/http/dto/keys"
	httperrors "github.com/dropDatabas3/certkeys/internal/http/errors"
	jwtx "github.com/dropDatabas3/certkeys/internal/jwt"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// KeySource es lo que el controller necesita del keystore.
type KeySource interface {
	Identity() string
	ActiveThumbprint() string
	ValidationKeys(ctx context.Context) []credential.ValidationKey
}

type KeysController struct {
	keys KeySource
	jwks *jwtx.JWKSCache
}

func NewKeysController(keys KeySource, jwks *jwtx.JWKSCache) *KeysController {
	return &KeysController{keys: keys, jwks: jwks}
}

// JWKS maneja GET/HEAD /.well-known/jwks.json
func (c *KeysController) JWKS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("KeysController.JWKS"))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	data, err := c.jwks.Get(ctx)
	if err != nil {
		log.Error("failed to build JWKS", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// List maneja GET /v1/keys
func (c *KeysController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active := c.keys.ActiveThumbprint()

	vks := c.keys.ValidationKeys(ctx)
	resp := dto.KeysResponse{
		Identity: c.keys.Identity(),
		Keys:     make([]dto.KeyInfo, 0, len(vks)),
	}
	for _, k := range vks {
		resp.Keys = append(resp.Keys, dto.KeyInfo{
			KeyID:      k.KeyID,
			Algorithm:  k.Algorithm,
			Thumbprint: k.Thumbprint,
			Subject:    k.Subject,
			NotAfter:   k.NotAfter.UTC(),
			Active:     k.Thumbprint == active,
		})
	}

	if len(resp.Keys) == 0 {
		logger.From(ctx).Warn("no validation keys to publish", logger.Op("KeysController.List"))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
