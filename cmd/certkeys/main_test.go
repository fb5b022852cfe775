package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certkeys/internal/config"
	"github.com/dropDatabas3/certkeys/internal/security/secretbox"
)

func testLoader(t *testing.T, alg string) (func() (*config.Config, error), string) {
	t.Helper()
	root := t.TempDir()
	return func() (*config.Config, error) {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg.JWT.Issuer = "https://id.example.com"
		cfg.Certificates.Root = root
		cfg.Certificates.SigningAlgorithm = alg
		return cfg, cfg.Validate()
	}, filepath.Join(root, "WebHosting")
}

func TestEncryptCmd(t *testing.T) {
	key := make([]byte, 32)
	t.Setenv(secretbox.EnvVar, base64.StdEncoding.EncodeToString(key))

	var out bytes.Buffer
	cmd := newEncryptCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("changeit\n"))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	sealed := strings.TrimSpace(out.String())
	require.True(t, secretbox.IsSealed(sealed))
	box, err := secretbox.FromEnv()
	require.NoError(t, err)
	pt, err := secretbox.Reveal(box, sealed)
	require.NoError(t, err)
	assert.Equal(t, "changeit", pt)
}

func TestEncryptCmd_NoKey(t *testing.T) {
	t.Setenv(secretbox.EnvVar, "")
	cmd := newEncryptCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"x"})
	assert.ErrorIs(t, cmd.Execute(), secretbox.ErrNoKey)
}

func TestDevCertThenInspect(t *testing.T) {
	load, dir := testLoader(t, "ES384")

	var out bytes.Buffer
	dev := newDevCertCmd(load)
	dev.SetOut(&out)
	dev.SetArgs([]string{"--days", "30"})
	require.NoError(t, dev.Execute())

	certPath := strings.TrimSpace(out.String())
	assert.Equal(t, dir, filepath.Dir(certPath))
	_, err := os.Stat(strings.TrimSuffix(certPath, ".crt") + ".key")
	require.NoError(t, err)

	out.Reset()
	insp := newInspectCmd(load)
	insp.SetOut(&out)
	insp.SetArgs([]string{"--out", "json"})
	require.NoError(t, insp.Execute())

	var rep struct {
		Identity   string            `json:"identity"`
		Algorithm  string            `json:"algorithm"`
		Candidates []candidateReport `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "id.example.com", rep.Identity)
	assert.Equal(t, "ES384", rep.Algorithm)
	require.Len(t, rep.Candidates, 1)
	assert.True(t, rep.Candidates[0].Live)
	assert.True(t, rep.Candidates[0].Accepted)
	assert.Equal(t, rep.Candidates[0].Thumbprint+"ES384", rep.Candidates[0].KeyID)
}

func TestInspect_ReportsRejection(t *testing.T) {
	loadRSA, _ := testLoader(t, "RS256")
	dev := newDevCertCmd(loadRSA)
	dev.SetOut(&bytes.Buffer{})
	dev.SetArgs([]string{})
	require.NoError(t, dev.Execute())

	// mismo directorio, pero la política pide EC
	loadEC := func() (*config.Config, error) {
		cfg, err := loadRSA()
		if err != nil {
			return nil, err
		}
		cfg.Certificates.SigningAlgorithm = "ES256"
		return cfg, nil
	}
	var out bytes.Buffer
	insp := newInspectCmd(loadEC)
	insp.SetOut(&out)
	insp.SetArgs([]string{"--out", "text"})
	require.NoError(t, insp.Execute())
	assert.Contains(t, out.String(), "rejected:")
}
