package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/certkeys/internal/security/secretbox"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	// Certificates: de dónde sale la credencial de firma.
	Certificates struct {
		// Root contiene las colecciones; StoreName es la colección (WebHosting).
		Root      string `yaml:"root"`
		StoreName string `yaml:"store_name"`
		// Identity pisa el host derivado de jwt.issuer.
		Identity         string `yaml:"identity"`
		SigningAlgorithm string `yaml:"signing_algorithm"`
		// startup | on_demand | interval
		RefreshMode     string `yaml:"refresh_mode"`
		RefreshInterval string `yaml:"refresh_interval"`
		QueryTimeout    string `yaml:"query_timeout"`
		// PFXPassword en claro o "enc:" + secretbox.
		PFXPassword string `yaml:"pfx_password"`
	} `yaml:"certificates"`

	JWKS struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"jwks"`
}

// Load lee path (si existe), aplica defaults y overrides de entorno.
// path vacío = solo defaults + entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, err
		}
	}
	c.applyEnvOverrides()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Certificates.Root == "" {
		c.Certificates.Root = "./data/certs"
	}
	if c.Certificates.StoreName == "" {
		c.Certificates.StoreName = "WebHosting"
	}
	if c.Certificates.SigningAlgorithm == "" {
		c.Certificates.SigningAlgorithm = "RS256"
	}
	if c.Certificates.RefreshMode == "" {
		c.Certificates.RefreshMode = "on_demand"
	}
	if c.Certificates.RefreshInterval == "" {
		c.Certificates.RefreshInterval = "30s"
	}
	if c.Certificates.QueryTimeout == "" {
		c.Certificates.QueryTimeout = "5s"
	}
	if c.JWKS.CacheTTL == "" {
		c.JWKS.CacheTTL = "15s"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvDur(key string) (string, bool) {
	if s, ok := getEnvStr(key); ok {
		s = strings.TrimSpace(s)
		if _, err := time.ParseDuration(s); err == nil {
			return s, true
		}
		// segundos sueltos: "30" => "30s"
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return strconv.Itoa(n) + "s", true
		}
	}
	return "", false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}

	// CERTIFICATES
	if v, ok := getEnvStr("CERTS_ROOT"); ok {
		c.Certificates.Root = v
	}
	if v, ok := getEnvStr("CERTS_STORE_NAME"); ok {
		c.Certificates.StoreName = v
	}
	if v, ok := getEnvStr("CERTS_IDENTITY"); ok {
		c.Certificates.Identity = v
	}
	if v, ok := getEnvStr("CERTS_SIGNING_ALG"); ok {
		c.Certificates.SigningAlgorithm = strings.TrimSpace(v)
	}
	if v, ok := getEnvStr("CERTS_REFRESH_MODE"); ok {
		c.Certificates.RefreshMode = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvDur("CERTS_REFRESH_INTERVAL"); ok {
		c.Certificates.RefreshInterval = v
	}
	if v, ok := getEnvDur("CERTS_QUERY_TIMEOUT"); ok {
		c.Certificates.QueryTimeout = v
	}
	if v, ok := getEnvStr("CERTS_PFX_PASSWORD"); ok {
		c.Certificates.PFXPassword = v
	}

	// JWKS
	if v, ok := getEnvDur("JWKS_CACHE_TTL"); ok {
		c.JWKS.CacheTTL = v
	}
}

// Validate chequea lo que tiene que estar bien antes de arrancar.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWT.Issuer) == "" && strings.TrimSpace(c.Certificates.Identity) == "" {
		errs = append(errs, errors.New("jwt.issuer or certificates.identity is required"))
	}
	for name, v := range map[string]string{
		"jwt.access_ttl":                c.JWT.AccessTTL,
		"certificates.refresh_interval": c.Certificates.RefreshInterval,
		"certificates.query_timeout":    c.Certificates.QueryTimeout,
		"jwks.cache_ttl":                c.JWKS.CacheTTL,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}
	switch c.Certificates.RefreshMode {
	case "startup", "on_demand", "on-demand", "interval":
	default:
		errs = append(errs, fmt.Errorf("certificates.refresh_mode: unknown mode %q", c.Certificates.RefreshMode))
	}
	return errors.Join(errs...)
}

// AccessTTL, RefreshInterval, QueryTimeout y JWKSCacheTTL asumen Validate().

func (c *Config) AccessTTL() time.Duration { return mustDur(c.JWT.AccessTTL) }

func (c *Config) RefreshInterval() time.Duration { return mustDur(c.Certificates.RefreshInterval) }

func (c *Config) QueryTimeout() time.Duration { return mustDur(c.Certificates.QueryTimeout) }

func (c *Config) JWKSCacheTTL() time.Duration { return mustDur(c.JWKS.CacheTTL) }

func mustDur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// PFXPassword devuelve el password de los PFX, descifrándolo con
// SECRETBOX_MASTER_KEY si viene como "enc:...".
func (c *Config) PFXPassword() (string, error) {
	v := c.Certificates.PFXPassword
	if !secretbox.IsSealed(v) {
		return v, nil
	}
	box, err := secretbox.FromEnv()
	if err != nil {
		return "", fmt.Errorf("certificates.pfx_password: %w", err)
	}
	pw, err := secretbox.Reveal(box, v)
	if err != nil {
		return "", fmt.Errorf("certificates.pfx_password: %w", err)
	}
	return pw, nil
}
