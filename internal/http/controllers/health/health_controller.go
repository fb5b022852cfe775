// Package health contiene el controller para health checks.
package health

import (
	"encoding/json"
	"net/http"

	dto "github.com/dropDatabas3/certkeys/internal/http/dto/health"
	svc "github.com/dropDatabas3/certkeys/internal/http/services/health"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz: el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz maneja GET /readyz: hay credencial de firma utilizable.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	response := c.service.Check(ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}
	if response.ActiveKeyID != "" {
		w.Header().Set("X-JWKS-KID", response.ActiveKeyID)
	}

	statusCode := http.StatusOK
	if response.Status == "unavailable" {
		statusCode = http.StatusServiceUnavailable
		log.Warn("readiness check failed", logger.Any("components", response.Components))
	}
	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, status int, v dto.HealthResponse) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
