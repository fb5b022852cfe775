// Package certs localiza certificados X.509 en un repositorio externo (un
// directorio de colección en la máquina, o un repositorio en memoria) por
// coincidencia de subject.
//
// El repositorio cambia por fuera del proceso (renovaciones, bajas), así que
// ningún Source cachea resultados: cada búsqueda relee el repositorio.
package certs

import (
	"crypto"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"
)

// Certificate es un handle sobre una instancia concreta de certificado del
// repositorio. Dos handles son el mismo certificado si coinciden sus Thumbprint.
type Certificate struct {
	Leaf       *x509.Certificate
	Subject    string
	Thumbprint string // SHA-1 del DER, hex en mayúsculas
	NotBefore  time.Time
	NotAfter   time.Time

	// PrivateKey es la clave parseada (nil si el repositorio no la expone).
	PrivateKey crypto.PrivateKey
	// KeyJWK es la clave privada en forma estructurada (JSON Web Key), si el
	// repositorio la guarda así en lugar de PEM/PKCS#12.
	KeyJWK []byte

	// Origin indica de dónde salió (ruta del archivo, "memory", ...).
	Origin string

	invalid atomic.Bool
}

// New construye un handle a partir del certificado hoja.
func New(leaf *x509.Certificate) *Certificate {
	return &Certificate{
		Leaf:       leaf,
		Subject:    leaf.Subject.String(),
		Thumbprint: ThumbprintOf(leaf.Raw),
		NotBefore:  leaf.NotBefore,
		NotAfter:   leaf.NotAfter,
	}
}

// ThumbprintOf calcula la huella SHA-1 de un certificado DER.
func ThumbprintOf(der []byte) string {
	sum := sha1.Sum(der)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// HasPrivateKey indica si hay material de clave privada accesible.
func (c *Certificate) HasPrivateKey() bool {
	return c.PrivateKey != nil || len(c.KeyJWK) > 0
}

// Live: dentro de la ventana de validez y no invalidado.
func (c *Certificate) Live(now time.Time) bool {
	if c.invalid.Load() {
		return false
	}
	return !now.Before(c.NotBefore) && now.Before(c.NotAfter)
}

// Invalidate marca el certificado como no válido aunque siga dentro de su
// ventana de validez. Es irreversible.
func (c *Certificate) Invalidate() { c.invalid.Store(true) }

// SameAs compara por thumbprint.
func (c *Certificate) SameAs(other *Certificate) bool {
	if c == nil || other == nil {
		return false
	}
	return c.Thumbprint == other.Thumbprint
}

// CommonName del subject (puede estar vacío).
func (c *Certificate) CommonName() string {
	if c.Leaf == nil {
		return ""
	}
	return c.Leaf.Subject.CommonName
}
