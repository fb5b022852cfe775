// Package secretbox cifra secretos de configuración (p. ej. el password de
// los PFX) con AES-256-GCM. Formato: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	// EnvVar contiene la clave maestra (base64, hex o 32 bytes crudos).
	EnvVar = "SECRETBOX_MASTER_KEY"
	// Prefix marca un valor de config cifrado: "enc:<nonce>|<ct>".
	Prefix = "enc:"

	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	ErrNoKey  = errors.New("secretbox: master key not set")
	ErrFormat = errors.New("secretbox: invalid ciphertext format")
)

// Box cifra y descifra con una clave fija.
type Box struct {
	aead cipher.AEAD
}

// New arma un Box con una clave en base64, hex (64 chars) o 32 bytes crudos.
func New(key string) (*Box, error) {
	k, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// FromEnv lee la clave de SECRETBOX_MASTER_KEY.
func FromEnv() (*Box, error) {
	k := strings.TrimSpace(os.Getenv(EnvVar))
	if k == "" {
		return nil, fmt.Errorf("%w: %s vacía; genere una clave con: openssl rand -base64 32", ErrNoKey, EnvVar)
	}
	return New(k)
}

func parseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNoKey
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 2*requiredKeyLength {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d)", len(key), requiredKeyLength)
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Encrypt(plainText string) (string, error) {
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt recibe base64(nonce)|base64(ciphertext) y devuelve el texto plano.
func (b *Box) Decrypt(cipherText string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(strings.TrimSpace(cipherText), sep)
	if !ok {
		return "", fmt.Errorf("%w: esperado base64(nonce)|base64(ciphertext)", ErrFormat)
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("%w: decode nonce: %v", ErrFormat, err)
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("%w: decode ciphertext: %v", ErrFormat, err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("%w: nonce de %d bytes", ErrFormat, len(nonce))
	}
	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}

// IsSealed indica si v es un valor con Prefix.
func IsSealed(v string) bool { return strings.HasPrefix(v, Prefix) }

// Reveal devuelve v tal cual si no tiene Prefix; si lo tiene, lo descifra
// (requiere b != nil).
func Reveal(b *Box, v string) (string, error) {
	if !IsSealed(v) {
		return v, nil
	}
	if b == nil {
		return "", fmt.Errorf("%w: valor cifrado sin %s", ErrNoKey, EnvVar)
	}
	return b.Decrypt(strings.TrimPrefix(v, Prefix))
}
