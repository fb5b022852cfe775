// Package certtest genera certificados para tests de los paquetes que
// consumen certs.Certificate.
package certtest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/dropDatabas3/certkeys/internal/certs"
)

// Opt ajusta las opciones de un certificado de test.
type Opt func(*certs.SelfSignedOptions)

// Window fija NotBefore/NotAfter.
func Window(notBefore, notAfter time.Time) Opt {
	return func(o *certs.SelfSignedOptions) {
		o.NotBefore = notBefore
		o.NotAfter = notAfter
	}
}

// DNS fija los SAN DNS.
func DNS(names ...string) Opt {
	return func(o *certs.SelfSignedOptions) { o.DNSNames = names }
}

// WithKey fija la clave.
func WithKey(k crypto.Signer) Opt {
	return func(o *certs.SelfSignedOptions) { o.Key = k }
}

// RSA crea un certificado RSA 2048 vigente para cn.
func RSA(t testing.TB, cn string, opts ...Opt) *certs.Certificate {
	t.Helper()
	return build(t, cn, RSAKey(t), opts...)
}

// EC crea un certificado ECDSA sobre curve.
func EC(t testing.TB, cn string, curve elliptic.Curve, opts ...Opt) *certs.Certificate {
	t.Helper()
	k, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}
	return build(t, cn, k, opts...)
}

// RSAKey genera una clave RSA 2048.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return k
}

// WithoutKey devuelve una copia del handle sin material privado.
func WithoutKey(c *certs.Certificate) *certs.Certificate {
	out := certs.New(c.Leaf)
	out.Origin = c.Origin
	return out
}

func build(t testing.TB, cn string, key crypto.Signer, opts ...Opt) *certs.Certificate {
	t.Helper()
	o := certs.SelfSignedOptions{
		CommonName: cn,
		NotBefore:  time.Now().Add(-time.Hour),
		NotAfter:   time.Now().Add(24 * time.Hour),
		Key:        key,
	}
	for _, fn := range opts {
		fn(&o)
	}
	c, err := certs.SelfSigned(o)
	if err != nil {
		t.Fatalf("self-signed %s: %v", cn, err)
	}
	return c
}
