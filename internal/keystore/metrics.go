package keystore

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certkeys_rotations_total",
		Help: "Cambios de certificado activo (no cuenta el primero)",
	})

	refreshFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "certkeys_refresh_failures_total",
		Help: "Refresh sin certificado nuevo por motivo",
	}, []string{"reason"}) // repository | no_candidate | policy

	prunedKeysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certkeys_pruned_keys_total",
		Help: "Validation keys eliminadas por certificado no vivo",
	})

	validationKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "certkeys_validation_keys",
		Help: "Validation keys retenidas en memoria",
	})

	repositoryQuerySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "certkeys_repository_query_seconds",
		Help:    "Latencia de la consulta al repositorio de certificados",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// RegisterMetrics registra las métricas del keystore (default registerer si reg es nil).
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		rotationsTotal, refreshFailuresTotal, prunedKeysTotal, validationKeys, repositoryQuerySeconds,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}
