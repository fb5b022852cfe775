// Package app arma el proceso: keystore, issuer, caché de JWKS y router HTTP.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/certkeys/internal/bootstrap"
	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/config"
	healthctrl "github.com/dropDatabas3/certkeys/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/certkeys/internal/http/controllers/keys"
	mw "github.com/dropDatabas3/certkeys/internal/http/middlewares"
	"github.com/dropDatabas3/certkeys/internal/http/router"
	healthsvc "github.com/dropDatabas3/certkeys/internal/http/services/health"
	httpserver "github.com/dropDatabas3/certkeys/internal/http"
	jwtx "github.com/dropDatabas3/certkeys/internal/jwt"
	"github.com/dropDatabas3/certkeys/internal/keystore"
	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// Container tiene todo lo que el proceso comparte.
type Container struct {
	Config  *config.Config
	Store   *keystore.Store
	Issuer  *jwtx.Issuer
	JWKS    *jwtx.JWKSCache
	Handler http.Handler

	log *zap.Logger
}

// Options para New. Source nil = DirSource de la config; Registerer nil =
// registry default.
type Options struct {
	Version    string
	Source     certs.Source
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// New arma el contenedor. Falla si no hay credencial de firma utilizable.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	log := logger.OrNamed(opts.Logger, "app")

	reg, gath := opts.Registerer, opts.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if gath == nil {
		gath = prometheus.DefaultGatherer
	}
	if err := keystore.RegisterMetrics(reg); err != nil {
		return nil, fmt.Errorf("register keystore metrics: %w", err)
	}
	if err := mw.RegisterMetrics(reg); err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	src := opts.Source
	if src == nil {
		dir, err := bootstrap.NewSource(cfg, log)
		if err != nil {
			return nil, err
		}
		src = dir
	}

	store, err := bootstrap.NewCredentialStore(ctx, cfg, src, log)
	if err != nil {
		return nil, err
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, store)
	issuer.AccessTTL = cfg.AccessTTL()
	jwks := jwtx.NewJWKSCache(cfg.JWKSCacheTTL(), jwtx.StoreLoader(store))

	handler := router.New(router.Deps{
		Keys:    keysctrl.NewKeysController(store, jwks),
		Health:  healthctrl.NewHealthController(healthsvc.NewService(store, opts.Version, nil)),
		Metrics: promhttp.HandlerFor(gath, promhttp.HandlerOpts{}),
		Logger:  log.Named("http"),
	})

	return &Container{
		Config:  cfg,
		Store:   store,
		Issuer:  issuer,
		JWKS:    jwks,
		Handler: handler,
		log:     log,
	}, nil
}

// Run sirve HTTP y, en modo interval, refresca el keystore en segundo plano.
// Vuelve cuando ctx se cancela o alguno de los dos falla.
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Store.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return httpserver.Serve(ctx, c.Config.Server.Addr, c.Handler, c.log)
	})
	c.log.Info("certkeys running",
		logger.Identity(c.Store.Identity()),
		logger.String("refresh_mode", string(c.Store.Mode())),
		logger.String("addr", c.Config.Server.Addr),
	)
	return g.Wait()
}
