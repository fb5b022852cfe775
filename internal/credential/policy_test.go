package credential_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certkeys/internal/certs"
	"github.com/dropDatabas3/certkeys/internal/certs/certtest"
	"github.com/dropDatabas3/certkeys/internal/credential"
)

func mustPolicy(t *testing.T, alg string) *credential.Policy {
	t.Helper()
	p, err := credential.NewPolicy(alg)
	require.NoError(t, err)
	return p
}

func requireViolation(t *testing.T, err error, contains string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrPolicyViolation)
	var pe *credential.PolicyError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, contains)
}

func TestNewPolicy_AllowList(t *testing.T) {
	p, err := credential.NewPolicy("")
	require.NoError(t, err)
	assert.Equal(t, credential.DefaultAlgorithm, p.Algorithm())

	for _, alg := range credential.SupportedAlgorithms() {
		_, err := credential.NewPolicy(alg)
		assert.NoError(t, err, alg)
	}

	for _, alg := range []string{"HS256", "EdDSA", "none", "rs256"} {
		_, err := credential.NewPolicy(alg)
		assert.ErrorIs(t, err, credential.ErrUnsupportedAlgorithm, alg)
	}
}

func TestAccept_RSA(t *testing.T) {
	c := certtest.RSA(t, "id.example.com")

	cred, err := mustPolicy(t, "RS256").Accept(c)
	require.NoError(t, err)

	assert.Equal(t, "RS256", cred.Algorithm)
	assert.Equal(t, c.Thumbprint+"RS256", cred.KeyID)
	assert.Same(t, c, cred.Certificate)

	vk := cred.ValidationKey()
	assert.Equal(t, cred.KeyID, vk.KeyID)
	assert.Equal(t, c.Thumbprint, vk.Thumbprint)
	assert.Equal(t, c.NotAfter, vk.NotAfter)
	assert.Equal(t, c.Leaf.PublicKey, vk.PublicKey)
}

func TestAccept_SameKeyTwoAlgorithmsDistinctKeyIDs(t *testing.T) {
	c := certtest.RSA(t, "id.example.com")

	rs, err := mustPolicy(t, "RS256").Accept(c)
	require.NoError(t, err)
	ps, err := mustPolicy(t, "PS256").Accept(c)
	require.NoError(t, err)

	assert.NotEqual(t, rs.KeyID, ps.KeyID)
}

func TestAccept_NoPrivateKey(t *testing.T) {
	c := certtest.WithoutKey(certtest.RSA(t, "id.example.com"))

	_, err := mustPolicy(t, "RS256").Accept(c)
	requireViolation(t, err, "private key")
}

func TestAccept_CurveMustMatchAlgorithm(t *testing.T) {
	cases := []struct {
		alg   string
		curve elliptic.Curve
		ok    bool
	}{
		{"ES256", elliptic.P256(), true},
		{"ES384", elliptic.P384(), true},
		{"ES512", elliptic.P521(), true},
		{"ES384", elliptic.P256(), false},
		{"ES256", elliptic.P384(), false},
		{"ES512", elliptic.P384(), false},
	}
	for _, tc := range cases {
		t.Run(tc.alg+"/"+tc.curve.Params().Name, func(t *testing.T) {
			c := certtest.EC(t, "id.example.com", tc.curve)
			cred, err := mustPolicy(t, tc.alg).Accept(c)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.alg, cred.Algorithm)
				return
			}
			requireViolation(t, err, "invalid curve")
		})
	}
}

func TestAccept_KeyFamilyMustMatchAlgorithm(t *testing.T) {
	ec := certtest.EC(t, "id.example.com", elliptic.P256())
	_, err := mustPolicy(t, "RS256").Accept(ec)
	requireViolation(t, err, "EC key cannot sign with RS256")

	rsa := certtest.RSA(t, "id.example.com")
	_, err = mustPolicy(t, "ES256").Accept(rsa)
	requireViolation(t, err, "RSA key cannot sign with ES256")

	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ed := certtest.RSA(t, "id.example.com", certtest.WithKey(edKey))
	_, err = mustPolicy(t, "RS256").Accept(ed)
	requireViolation(t, err, "cannot sign with RS256")
}

func TestAccept_PrivateKeyMustMatchCertificate(t *testing.T) {
	a := certtest.RSA(t, "id.example.com")
	b := certtest.RSA(t, "id.example.com")
	mixed := certs.New(a.Leaf)
	mixed.PrivateKey = b.PrivateKey

	_, err := mustPolicy(t, "RS256").Accept(mixed)
	requireViolation(t, err, "does not match")
}

func TestAccept_NonAsymmetricKey(t *testing.T) {
	c := certs.New(certtest.RSA(t, "id.example.com").Leaf)
	c.PrivateKey = []byte("shared-secret")

	_, err := mustPolicy(t, "RS256").Accept(c)
	requireViolation(t, err, "not asymmetric")
}

func jwkFor(t *testing.T, key any) []byte {
	t.Helper()
	raw, err := json.Marshal(jose.JSONWebKey{Key: key})
	require.NoError(t, err)
	return raw
}

func TestAccept_StructuredJWK(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	base := certtest.EC(t, "id.example.com", elliptic.P256(), certtest.WithKey(ecKey))

	t.Run("private EC key accepted", func(t *testing.T) {
		c := certs.New(base.Leaf)
		c.KeyJWK = jwkFor(t, ecKey)

		cred, err := mustPolicy(t, "ES256").Accept(c)
		require.NoError(t, err)
		assert.Equal(t, base.Thumbprint+"ES256", cred.KeyID)
	})

	t.Run("public only rejected", func(t *testing.T) {
		c := certs.New(base.Leaf)
		c.KeyJWK = jwkFor(t, &ecKey.PublicKey)

		_, err := mustPolicy(t, "ES256").Accept(c)
		requireViolation(t, err, "no private key material")
	})

	t.Run("unsupported crv rejected", func(t *testing.T) {
		c := certs.New(base.Leaf)
		c.KeyJWK = []byte(`{"kty":"EC","crv":"P-192","x":"AA","y":"AA","d":"AA"}`)

		_, err := mustPolicy(t, "ES256").Accept(c)
		requireViolation(t, err, "invalid crv")
	})

	t.Run("symmetric key rejected", func(t *testing.T) {
		c := certs.New(base.Leaf)
		c.KeyJWK = jwkFor(t, []byte("0123456789abcdef0123456789abcdef"))

		_, err := mustPolicy(t, "ES256").Accept(c)
		requireViolation(t, err, "not asymmetric")
	})

	t.Run("garbage rejected", func(t *testing.T) {
		c := certs.New(base.Leaf)
		c.KeyJWK = []byte(`{not json`)

		_, err := mustPolicy(t, "ES256").Accept(c)
		requireViolation(t, err, "malformed")
	})
}

func TestValidationKey_JWK(t *testing.T) {
	c := certtest.EC(t, "id.example.com", elliptic.P384())
	cred, err := mustPolicy(t, "ES384").Accept(c)
	require.NoError(t, err)

	jwk := cred.ValidationKey().JWK()
	assert.True(t, jwk.IsPublic())
	assert.Equal(t, cred.KeyID, jwk.KeyID)
	assert.Equal(t, "sig", jwk.Use)
	require.Len(t, jwk.Certificates, 1)

	raw, err := json.Marshal(jwk)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "EC", doc["kty"])
	assert.Equal(t, "P-384", doc["crv"])
	assert.Equal(t, "ES384", doc["alg"])
	assert.NotEmpty(t, doc["x5c"])
	assert.NotEmpty(t, doc["x5t"])
	assert.NotContains(t, doc, "d")
}
