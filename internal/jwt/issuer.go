// Package jwt firma y verifica tokens con las credenciales del keystore.
// La clave de firma es siempre la activa; la verificación acepta cualquier
// validation key retenida (activa o rotada pero todavía viva).
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/certkeys/internal/credential"
)

var (
	ErrInvalidIssuer = errors.New("invalid_issuer")
	ErrKIDMissing    = errors.New("kid_missing")
	ErrUnknownKID    = errors.New("unknown_kid")
	ErrInvalidJWT    = errors.New("invalid_jwt")
)

// KeySource es lo que el Issuer necesita del keystore.
type KeySource interface {
	SigningCredential(ctx context.Context) (*credential.SigningCredential, error)
	ValidationKeys(ctx context.Context) []credential.ValidationKey
}

// Issuer firma tokens usando la credencial activa del keystore.
type Issuer struct {
	Iss       string        // "iss"
	Keys      KeySource     // keystore rotativo
	AccessTTL time.Duration // TTL por defecto de Access (ej: 15m)

	now func() time.Time
}

func NewIssuer(iss string, ks KeySource) *Issuer {
	return &Issuer{
		Iss:       iss,
		Keys:      ks,
		AccessTTL: 15 * time.Minute,
		now:       time.Now,
	}
}

// ActiveKID devuelve el KID de la credencial activa.
func (i *Issuer) ActiveKID(ctx context.Context) (string, error) {
	cred, err := i.Keys.SigningCredential(ctx)
	if err != nil {
		return "", err
	}
	return cred.KeyID, nil
}

// SignRaw firma un MapClaims arbitrario, setea header kid/typ y devuelve el
// JWT firmado junto con el kid usado.
func (i *Issuer) SignRaw(ctx context.Context, claims jwtv5.MapClaims) (string, string, error) {
	cred, err := i.Keys.SigningCredential(ctx)
	if err != nil {
		return "", "", err
	}
	method := jwtv5.GetSigningMethod(cred.Algorithm)
	if method == nil {
		return "", "", fmt.Errorf("%w: %s", credential.ErrUnsupportedAlgorithm, cred.Algorithm)
	}
	tk := jwtv5.NewWithClaims(method, claims)
	tk.Header["kid"] = cred.KeyID
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(cred.Key)
	if err != nil {
		return "", "", fmt.Errorf("sign with %s: %w", cred.KeyID, err)
	}
	return signed, cred.KeyID, nil
}

// IssueAccess emite un Access Token con claims estándar + std (flat) y custom (anidado).
func (i *Issuer) IssueAccess(ctx context.Context, sub, aud string, std map[string]any, custom map[string]any) (string, time.Time, error) {
	now := i.clock().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss": i.Iss,
		"sub": sub,
		"aud": aud,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
		"jti": uuid.NewString(),
	}
	for k, v := range std {
		claims[k] = v
	}
	if custom != nil {
		claims["custom"] = custom
	}

	signed, _, err := i.SignRaw(ctx, claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc devuelve un jwt.Keyfunc que elige la pubkey por 'kid' entre las
// validation keys vigentes. Sin kid el token se rechaza: con rotación no hay
// una "clave por defecto" segura.
func (i *Issuer) Keyfunc(ctx context.Context) jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrKIDMissing
		}
		for _, vk := range i.Keys.ValidationKeys(ctx) {
			if vk.KeyID != kid {
				continue
			}
			if t.Method == nil || t.Method.Alg() != vk.Algorithm {
				return nil, fmt.Errorf("%w: alg mismatch for %s", ErrInvalidJWT, kid)
			}
			return vk.PublicKey, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKID, kid)
	}
}

func (i *Issuer) clock() time.Time {
	if i.now == nil {
		return time.Now()
	}
	return i.now()
}
