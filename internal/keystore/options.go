package keystore

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RefreshMode decide cuándo se vuelve a consultar el repositorio.
type RefreshMode string

const (
	// RefreshOnStartup: sólo en la construcción.
	RefreshOnStartup RefreshMode = "startup"
	// RefreshOnDemand: en cada SigningCredential, como mucho una vez por RefreshEvery.
	RefreshOnDemand RefreshMode = "on_demand"
	// RefreshInterval: en segundo plano cada RefreshEvery (ver Store.Run).
	RefreshInterval RefreshMode = "interval"
)

const (
	defaultRefreshEvery = 30 * time.Second
	defaultQueryTimeout = 5 * time.Second
	defaultRejectionTTL = 5 * time.Minute
)

// ParseRefreshMode acepta "startup", "on_demand"/"on-demand" e "interval".
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(RefreshOnDemand), "on-demand", "ondemand":
		return RefreshOnDemand, nil
	case string(RefreshOnStartup):
		return RefreshOnStartup, nil
	case string(RefreshInterval):
		return RefreshInterval, nil
	default:
		return "", fmt.Errorf("%w: unknown refresh mode %q", ErrConfiguration, s)
	}
}

// Options de construcción del Store.
type Options struct {
	// Identity es el nombre de subject a buscar (normalmente el host del issuer).
	Identity string

	Mode RefreshMode

	// RefreshEvery: throttle en on_demand (0 = cada llamada), período en interval.
	RefreshEvery time.Duration

	// QueryTimeout acota la consulta al repositorio. Un timeout cuenta como
	// "sin candidato".
	QueryTimeout time.Duration

	// RejectionTTL: cuánto se recuerda un candidato rechazado por la política
	// antes de volver a evaluarlo.
	RejectionTTL time.Duration

	Logger *zap.Logger

	// Now permite inyectar el reloj (tests).
	Now func() time.Time
}

func (o *Options) normalize() error {
	o.Identity = strings.TrimSpace(o.Identity)
	if o.Identity == "" {
		return fmt.Errorf("%w: empty target identity", ErrConfiguration)
	}
	mode, err := ParseRefreshMode(string(o.Mode))
	if err != nil {
		return err
	}
	o.Mode = mode
	if o.RefreshEvery < 0 {
		o.RefreshEvery = 0
	}
	if o.Mode == RefreshInterval && o.RefreshEvery == 0 {
		o.RefreshEvery = defaultRefreshEvery
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = defaultQueryTimeout
	}
	if o.RejectionTTL <= 0 {
		o.RejectionTTL = defaultRejectionTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return nil
}
