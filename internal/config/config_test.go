package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certkeys/internal/security/secretbox"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "WebHosting", c.Certificates.StoreName)
	assert.Equal(t, "RS256", c.Certificates.SigningAlgorithm)
	assert.Equal(t, "on_demand", c.Certificates.RefreshMode)
	assert.Equal(t, 5*time.Second, c.QueryTimeout())
	assert.Equal(t, 15*time.Minute, c.AccessTTL())

	// sin issuer ni identity no arranca
	assert.Error(t, c.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
jwt:
  issuer: https://id.example.com
certificates:
  root: /etc/certkeys
  signing_algorithm: ES256
  refresh_mode: interval
  refresh_interval: 1m
`)
	t.Setenv("CERTS_SIGNING_ALG", "PS384")
	t.Setenv("CERTS_QUERY_TIMEOUT", "2")
	t.Setenv("SERVER_ADDR", ":9090")

	c, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, "https://id.example.com", c.JWT.Issuer)
	assert.Equal(t, "/etc/certkeys", c.Certificates.Root)
	assert.Equal(t, "PS384", c.Certificates.SigningAlgorithm)
	assert.Equal(t, "interval", c.Certificates.RefreshMode)
	assert.Equal(t, time.Minute, c.RefreshInterval())
	assert.Equal(t, 2*time.Second, c.QueryTimeout())
	assert.Equal(t, ":9090", c.Server.Addr)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeYAML(t, "certificates: [oops"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	c.Certificates.Identity = "id.example.com"
	require.NoError(t, c.Validate())

	c.Certificates.RefreshMode = "hourly"
	c.JWKS.CacheTTL = "soon"
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_mode")
	assert.Contains(t, err.Error(), "jwks.cache_ttl")
}

func TestPFXPassword(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	c.Certificates.PFXPassword = "plain"
	pw, err := c.PFXPassword()
	require.NoError(t, err)
	assert.Equal(t, "plain", pw)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv(secretbox.EnvVar, base64.StdEncoding.EncodeToString(key))
	box, err := secretbox.FromEnv()
	require.NoError(t, err)
	ct, err := box.Encrypt("changeit")
	require.NoError(t, err)

	c.Certificates.PFXPassword = secretbox.Prefix + ct
	pw, err = c.PFXPassword()
	require.NoError(t, err)
	assert.Equal(t, "changeit", pw)

	t.Setenv(secretbox.EnvVar, "")
	_, err = c.PFXPassword()
	assert.ErrorIs(t, err, secretbox.ErrNoKey)
}
