// Package health arma el estado de salud del servicio a partir del keystore.
package health

import (
	"context"
	"time"

	"github.com/dropDatabas3/certkeys/internal/credential"
	dto "github.com/dropDatabas3/certkeys/internal/http/dto/health"
)

// Signer es lo que el health check necesita del keystore.
type Signer interface {
	Identity() string
	SigningCredential(ctx context.Context) (*credential.SigningCredential, error)
}

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

type healthService struct {
	signer  Signer
	version string
	now     func() time.Time
}

// NewService crea el servicio de health. now puede ser nil (time.Now).
func NewService(signer Signer, version string, now func() time.Time) HealthService {
	if now == nil {
		now = time.Now
	}
	return &healthService{signer: signer, version: version, now: now}
}

// Check devuelve "ready" si hay credencial activa con certificado vivo.
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	now := s.now()
	resp := dto.HealthResponse{
		Status:     "ready",
		Components: map[string]dto.HealthStatus{},
		Version:    s.version,
		Identity:   s.signer.Identity(),
		Timestamp:  now.UTC(),
	}

	cred, err := s.signer.SigningCredential(ctx)
	switch {
	case err != nil:
		resp.Status = "unavailable"
		resp.Components["signing_key"] = dto.HealthStatus{Status: "error", Message: err.Error()}
	case cred.Certificate != nil && !cred.Certificate.Live(now):
		resp.Status = "unavailable"
		resp.ActiveKeyID = cred.KeyID
		resp.Components["signing_key"] = dto.HealthStatus{Status: "error", Message: "active certificate is no longer valid"}
	default:
		resp.ActiveKeyID = cred.KeyID
		if cred.Certificate != nil {
			exp := cred.Certificate.NotAfter.UTC()
			resp.ExpiresAt = &exp
		}
		resp.Components["signing_key"] = dto.HealthStatus{Status: "ok"}
	}
	return resp
}
