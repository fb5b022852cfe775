// Package credential decide si un certificado sirve para firmar tokens y, si
// sirve, deriva la SigningCredential.
//
// Las reglas se evalúan al derivar la credencial y no al emitir el primer
// token: un certificado sin clave privada o una curva que no corresponde al
// algoritmo tienen que fallar acá, en voz alta.
package credential

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/dropDatabas3/certkeys/internal/certs"
)

// Policy aplica las reglas de aceptación con un algoritmo fijo.
type Policy struct {
	algorithm string
}

// NewPolicy valida alg contra la allow-list. alg vacío usa DefaultAlgorithm.
func NewPolicy(alg string) (*Policy, error) {
	if alg == "" {
		alg = DefaultAlgorithm
	}
	if !IsSupported(alg) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	return &Policy{algorithm: alg}, nil
}

// Algorithm devuelve el algoritmo de firma elegido.
func (p *Policy) Algorithm() string {
	if p == nil || p.algorithm == "" {
		return DefaultAlgorithm
	}
	return p.algorithm
}

// Accept valida el certificado y deriva la credencial. Cualquier rechazo es
// un *PolicyError (errors.Is(err, ErrPolicyViolation)).
func (p *Policy) Accept(c *certs.Certificate) (*SigningCredential, error) {
	if c == nil {
		return nil, &PolicyError{Reason: "no certificate"}
	}
	reject := func(format string, args ...any) error {
		return &PolicyError{Thumbprint: c.Thumbprint, Subject: c.Subject, Reason: fmt.Sprintf(format, args...)}
	}

	if !c.HasPrivateKey() {
		return nil, reject("X509 certificate does not have a private key")
	}

	var key crypto.PrivateKey = c.PrivateKey
	if key == nil {
		k, reason := keyFromJWK(c.KeyJWK)
		if reason != "" {
			return nil, reject("%s", reason)
		}
		key = k
	}

	signer, ok := asymmetric(key)
	if !ok {
		return nil, reject("signing key is not asymmetric (%T)", key)
	}

	alg := p.Algorithm()
	if !IsSupported(alg) {
		return nil, reject("signing algorithm %s is not supported", alg)
	}

	switch k := signer.(type) {
	case *rsa.PrivateKey:
		if !isRSAFamily(alg) {
			return nil, reject("RSA key cannot sign with %s", alg)
		}
	case *ecdsa.PrivateKey:
		if !isECFamily(alg) {
			return nil, reject("EC key cannot sign with %s", alg)
		}
		if want, got := curveForAlgorithm(alg), curveName(k.Curve); want != got {
			return nil, reject("invalid curve %s for signing algorithm %s (requires %s)", got, alg, want)
		}
	default:
		return nil, reject("%T key cannot sign with %s", signer, alg)
	}

	if c.Leaf != nil {
		pub, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
		if !ok || !pub.Equal(c.Leaf.PublicKey) {
			return nil, reject("private key does not match the certificate public key")
		}
	}

	return &SigningCredential{
		// mismo material con dos algoritmos (RS256/PS256) no debe colisionar en kid
		KeyID:       c.Thumbprint + alg,
		Algorithm:   alg,
		Key:         signer,
		Certificate: c,
	}, nil
}

func asymmetric(key crypto.PrivateKey) (crypto.Signer, bool) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, true
	case *ecdsa.PrivateKey:
		return k, true
	case ed25519.PrivateKey:
		return k, true
	default:
		return nil, false
	}
}

type jwkHeader struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
}

// keyFromJWK devuelve la clave o el motivo del rechazo.
func keyFromJWK(raw []byte) (crypto.PrivateKey, string) {
	var hdr jwkHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, "malformed JSON Web Key: " + err.Error()
	}
	if hdr.Kty == "EC" && !isValidCrv(hdr.Crv) {
		return nil, fmt.Sprintf("invalid crv value %q for signing algorithm", hdr.Crv)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, "invalid JSON Web Key: " + err.Error()
	}
	if jwk.IsPublic() {
		return nil, "JSON Web Key has no private key material"
	}
	return jwk.Key, ""
}
