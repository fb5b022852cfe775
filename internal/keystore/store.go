// Package keystore mantiene la credencial de firma activa y el historial de
// validation keys derivados de certificados del repositorio.
//
// Ciclo de vida: New construye el Store y hace el primer Refresh; si no hay
// ningún certificado aceptable la construcción falla (el servicio no puede
// firmar). Después el Store vive lo que vive el proceso; no persiste nada.
//
// Rotación: cuando el repositorio devuelve un certificado con otro thumbprint,
// pasa a ser el activo y la validation key del anterior se conserva hasta que
// su certificado deja de estar vivo (ValidationKeys poda en cada llamada).
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/credential"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

type acceptor interface {
	Accept(c *certs.Certificate) (*credential.SigningCredential, error)
}

type entry struct {
	cert *certs.Certificate
	key  credential.ValidationKey
}

// Store es seguro para uso concurrente. Un único RWMutex protege todo el
// estado; nadie fuera de los métodos del Store lo muta.
type Store struct {
	src    certs.Source
	policy acceptor
	opts   Options
	log    *zap.Logger

	sf       singleflight.Group
	rejected *gocache.Cache // thumbprint -> error de la política

	mu          sync.RWMutex
	active      *certs.Certificate
	activeCred  *credential.SigningCredential
	keys        map[string]entry // thumbprint -> entry
	lastRefresh time.Time
}

// New construye el Store y ejecuta el primer refresh. Errores:
// ErrConfiguration, o ErrNoAcceptableCertificate (que puede envolver además
// credential.ErrPolicyViolation o certs.ErrRepositoryUnavailable).
func New(ctx context.Context, src certs.Source, policy acceptor, opts Options) (*Store, error) {
	if src == nil || policy == nil {
		return nil, fmt.Errorf("%w: certificate source and policy are required", ErrConfiguration)
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	s := &Store{
		src:      src,
		policy:   policy,
		opts:     opts,
		log:      logger.OrNamed(opts.Logger, "keystore").With(logger.Identity(opts.Identity)),
		rejected: gocache.New(opts.RejectionTTL, opts.RejectionTTL),
		keys:     make(map[string]entry),
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Identity devuelve el nombre buscado en el repositorio.
func (s *Store) Identity() string { return s.opts.Identity }

// Mode devuelve el modo de refresh configurado.
func (s *Store) Mode() RefreshMode { return s.opts.Mode }

// Refresh vuelve a consultar el repositorio. Llamadas concurrentes se
// coalescen en una sola consulta.
//
// Sólo devuelve error si no hay certificado activo; con uno activo, los
// problemas (repositorio caído, candidato rechazado) se loguean y se sigue
// sirviendo el activo.
func (s *Store) Refresh(ctx context.Context) error {
	_, err, _ := s.sf.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	candidates, qErr := s.query(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	s.lastRefresh = now

	if qErr != nil {
		refreshFailuresTotal.WithLabelValues("repository").Inc()
		if s.active == nil {
			return fmt.Errorf("%w for %q: %w", ErrNoAcceptableCertificate, s.opts.Identity, qErr)
		}
		s.log.Warn("certificate repository unavailable, keeping active certificate",
			logger.Thumbprint(s.active.Thumbprint), logger.Err(qErr))
		return nil
	}

	live := candidates[:0:0]
	for _, c := range candidates {
		if c.Live(now) {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		refreshFailuresTotal.WithLabelValues("no_candidate").Inc()
		if s.active == nil {
			return fmt.Errorf("%w: no live certificate matches %q", ErrNoAcceptableCertificate, s.opts.Identity)
		}
		s.log.Warn("no live certificate found, keeping active certificate",
			logger.Thumbprint(s.active.Thumbprint))
		return nil
	}

	var violations []error
	for _, c := range live {
		if s.active.SameAs(c) {
			return nil
		}
		if cached, ok := s.rejected.Get(c.Thumbprint); ok {
			violations = append(violations, cached.(error))
			continue
		}
		cred, err := s.policy.Accept(c)
		if err != nil {
			s.rejected.SetDefault(c.Thumbprint, err)
			s.log.Warn("certificate rejected by signing policy",
				logger.Subject(c.Subject), logger.Thumbprint(c.Thumbprint), logger.Err(err))
			violations = append(violations, err)
			continue
		}
		s.activateLocked(c, cred)
		return nil
	}

	refreshFailuresTotal.WithLabelValues("policy").Inc()
	if s.active == nil {
		return fmt.Errorf("%w for %q: %w", ErrNoAcceptableCertificate, s.opts.Identity, errors.Join(violations...))
	}
	return nil
}

// query consulta el repositorio con timeout, aunque el Source ignore el ctx.
func (s *Store) query(ctx context.Context) ([]*certs.Certificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	type result struct {
		certs []*certs.Certificate
		err   error
	}
	ch := make(chan result, 1)
	start := time.Now()
	go func() {
		cs, err := s.src.FindBySubjectName(ctx, s.opts.Identity)
		ch <- result{certs: cs, err: err}
	}()

	select {
	case r := <-ch:
		repositoryQuerySeconds.Observe(time.Since(start).Seconds())
		return r.certs, r.err
	case <-ctx.Done():
		repositoryQuerySeconds.Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", certs.ErrRepositoryUnavailable, ctx.Err())
	}
}

func (s *Store) activateLocked(c *certs.Certificate, cred *credential.SigningCredential) {
	prev := s.active
	s.active = c
	s.activeCred = cred
	// la entrada del anterior se queda: tokens recién firmados tienen que verificar
	s.keys[c.Thumbprint] = entry{cert: c, key: cred.ValidationKey()}
	validationKeys.Set(float64(len(s.keys)))

	fields := []zap.Field{
		logger.Subject(c.Subject),
		logger.Thumbprint(c.Thumbprint),
		logger.Expiration(c.NotAfter),
		logger.KeyID(cred.KeyID),
	}
	if prev == nil {
		s.log.Info("signing certificate found", fields...)
		return
	}
	rotationsTotal.Inc()
	s.log.Info("new signing certificate found", append(fields, zap.String("previous_thumbprint", prev.Thumbprint))...)
}

// SigningCredential devuelve la credencial del certificado activo. En modo
// on_demand refresca antes (como mucho una vez por RefreshEvery).
func (s *Store) SigningCredential(ctx context.Context) (*credential.SigningCredential, error) {
	if s.opts.Mode == RefreshOnDemand && s.refreshDue() {
		if err := s.Refresh(ctx); err != nil {
			s.log.Warn("on-demand refresh failed", logger.Err(err))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeCred == nil {
		return nil, ErrNoAcceptableCertificate
	}
	return s.activeCred, nil
}

func (s *Store) refreshDue() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.Now().Sub(s.lastRefresh) >= s.opts.RefreshEvery
}

// ActiveThumbprint devuelve el thumbprint del certificado activo ("" si no hay).
func (s *Store) ActiveThumbprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ""
	}
	return s.active.Thumbprint
}

// ValidationKeys poda las entradas cuyo certificado ya no está vivo y
// devuelve el resto. El contrato no garantiza orden; en la práctica salen
// por NotAfter descendente.
func (s *Store) ValidationKeys(_ context.Context) []credential.ValidationKey {
	now := s.opts.Now()

	s.mu.RLock()
	if !s.hasStaleLocked(now) {
		defer s.mu.RUnlock()
		return s.snapshotLocked()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	return s.snapshotLocked()
}

func (s *Store) hasStaleLocked(now time.Time) bool {
	for _, e := range s.keys {
		if !e.cert.Live(now) {
			return true
		}
	}
	return false
}

func (s *Store) pruneLocked(now time.Time) {
	for thumb, e := range s.keys {
		if e.cert.Live(now) {
			continue
		}
		delete(s.keys, thumb)
		prunedKeysTotal.Inc()
		s.log.Info("certificate removed from validation keys",
			logger.Subject(e.cert.Subject),
			logger.Thumbprint(thumb),
			logger.Expiration(e.cert.NotAfter))
	}
	validationKeys.Set(float64(len(s.keys)))
}

func (s *Store) snapshotLocked() []credential.ValidationKey {
	out := make([]credential.ValidationKey, 0, len(s.keys))
	for _, e := range s.keys {
		out = append(out, e.key)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NotAfter.Equal(out[j].NotAfter) {
			return out[i].NotAfter.After(out[j].NotAfter)
		}
		return out[i].KeyID < out[j].KeyID
	})
	return out
}

// Run refresca y poda periódicamente hasta que ctx se cancele. Sólo hace algo
// en modo interval; en los otros modos retorna enseguida.
func (s *Store) Run(ctx context.Context) {
	if s.opts.Mode != RefreshInterval {
		return
	}
	t := time.NewTicker(s.opts.RefreshEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Error("periodic refresh failed", logger.Err(err))
			}
			s.ValidationKeys(ctx)
		}
	}
}
