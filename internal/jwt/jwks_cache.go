package jwt

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const jwksKey = "jwks"

// JWKSCache cachea el JWKS JSON por un TTL corto. Una rotación o una poda se
// ven, como mucho, un TTL más tarde; Invalidate lo adelanta.
type JWKSCache struct {
	c    *gocache.Cache
	ttl  time.Duration
	load func(ctx context.Context) (json.RawMessage, error)
}

func NewJWKSCache(ttl time.Duration, loader func(context.Context) (json.RawMessage, error)) *JWKSCache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = time.Minute
	}
	return &JWKSCache{
		c:    gocache.New(ttl, cleanup),
		ttl:  ttl,
		load: loader,
	}
}

// Get devuelve el JWKS cacheado o lo recarga.
func (c *JWKSCache) Get(ctx context.Context) (json.RawMessage, error) {
	if c.ttl > 0 {
		if v, ok := c.c.Get(jwksKey); ok {
			return v.(json.RawMessage), nil
		}
	}
	data, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.c.Set(jwksKey, data, c.ttl)
	}
	return data, nil
}

// Invalidate descarta el JWKS cacheado.
func (c *JWKSCache) Invalidate() {
	c.c.Delete(jwksKey)
}

// StoreLoader arma el loader estándar: validation keys del keystore -> JWKS.
func StoreLoader(ks KeySource) func(context.Context) (json.RawMessage, error) {
	return func(ctx context.Context) (json.RawMessage, error) {
		return BuildJWKS(ks.ValidationKeys(ctx))
	}
}
