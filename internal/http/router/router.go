// Package router arma el router chi con todas las rutas públicas.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	healthctrl "github.com/dropDatabas3/certkeys/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/certkeys/internal/http/controllers/keys"
	httperrors "github.com/dropDatabas3/certkeys/internal/http/errors"
	mw "github.com/dropDatabas3/certkeys/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Keys    *keysctrl.KeysController
	Health  *healthctrl.HealthController
	Metrics http.Handler // nil = sin /metrics
	Logger  *zap.Logger
}

// New registra:
//
//	GET|HEAD /.well-known/jwks.json
//	GET      /v1/keys
//	GET      /healthz, /readyz
//	GET      /metrics
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// health sin logging (muy frecuentes)
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging(deps.Logger), mw.WithNoStore())
		r.Get("/.well-known/jwks.json", deps.Keys.JWKS)
		r.Head("/.well-known/jwks.json", deps.Keys.JWKS)
		r.Get("/v1/keys", deps.Keys.List)
	})
	return r
}
