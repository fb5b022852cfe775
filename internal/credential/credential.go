package credential

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/dropDatabas3/certkeys/internal/certs"
)

// SigningCredential es la clave privada + algoritmo con la que se firman tokens.
type SigningCredential struct {
	KeyID       string
	Algorithm   string
	Key         crypto.Signer
	Certificate *certs.Certificate
}

// ValidationKey es la parte pública de una SigningCredential. Se conserva
// mientras el certificado siga vivo aunque ya no sea el firmante activo.
type ValidationKey struct {
	KeyID      string
	Algorithm  string
	PublicKey  crypto.PublicKey
	Thumbprint string
	Subject    string
	NotAfter   time.Time
	Leaf       *x509.Certificate
}

// ValidationKey deriva la entrada de validación de la credencial.
func (c *SigningCredential) ValidationKey() ValidationKey {
	vk := ValidationKey{
		KeyID:     c.KeyID,
		Algorithm: c.Algorithm,
		PublicKey: c.Key.Public(),
	}
	if cert := c.Certificate; cert != nil {
		vk.Thumbprint = cert.Thumbprint
		vk.Subject = cert.Subject
		vk.NotAfter = cert.NotAfter
		vk.Leaf = cert.Leaf
	}
	return vk
}

// JWK representa la clave como JSON Web Key pública (con x5c/x5t si hay cert).
func (k ValidationKey) JWK() jose.JSONWebKey {
	jwk := jose.JSONWebKey{
		Key:       k.PublicKey,
		KeyID:     k.KeyID,
		Algorithm: k.Algorithm,
		Use:       "sig",
	}
	if k.Leaf != nil {
		s1 := sha1.Sum(k.Leaf.Raw)
		s256 := sha256.Sum256(k.Leaf.Raw)
		jwk.Certificates = []*x509.Certificate{k.Leaf}
		jwk.CertificateThumbprintSHA1 = s1[:]
		jwk.CertificateThumbprintSHA256 = s256[:]
	}
	return jwk
}
