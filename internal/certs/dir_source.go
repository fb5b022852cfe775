package certs

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"

	"github.com/dropDatabas3/certkeys/internal/observability/logger"
)

// DefaultStoreName es la colección que se usa si la config no indica otra.
const DefaultStoreName = "WebHosting"

// DirSource lee una colección de certificados de la máquina: un directorio
// <root>/<storeName> con archivos PEM/CRT/CER, PFX/P12 y, un nivel más abajo,
// directorios estilo certbot/lego (fullchain.pem + privkey.pem).
//
// Es de solo lectura; nunca escribe en la colección.
type DirSource struct {
	dir         string
	pfxPassword string
	log         *zap.Logger
}

// DirOption configura un DirSource.
type DirOption func(*DirSource)

// WithPFXPassword define el password para archivos PKCS#12.
func WithPFXPassword(p string) DirOption {
	return func(s *DirSource) { s.pfxPassword = p }
}

// WithLogger define el logger para archivos ilegibles o inválidos.
func WithLogger(l *zap.Logger) DirOption {
	return func(s *DirSource) { s.log = l }
}

func NewDirSource(root, storeName string, opts ...DirOption) *DirSource {
	if strings.TrimSpace(storeName) == "" {
		storeName = DefaultStoreName
	}
	s := &DirSource{dir: filepath.Join(root, storeName)}
	for _, o := range opts {
		o(s)
	}
	s.log = logger.OrNamed(s.log, "certs.dir")
	return s
}

// Dir devuelve el directorio de la colección.
func (s *DirSource) Dir() string { return s.dir }

func (s *DirSource) FindBySubjectName(ctx context.Context, name string) ([]*Certificate, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return rankMatches(all, name), nil
}

// List devuelve todos los certificados de la colección, sin filtrar.
func (s *DirSource) List(ctx context.Context) ([]*Certificate, error) {
	byThumb := make(map[string]*Certificate)
	var order []string

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir {
				return err
			}
			s.log.Warn("skipping unreadable entry", logger.String("path", path), logger.Err(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			// la colección + un nivel de subdirectorios
			if path != s.dir && filepath.Dir(path) != s.dir {
				return fs.SkipDir
			}
			return nil
		}

		c, err := s.loadFile(path)
		if err != nil {
			s.log.Warn("skipping invalid certificate file", logger.String("path", path), logger.Err(err))
			return nil
		}
		if c == nil {
			return nil
		}
		prev, seen := byThumb[c.Thumbprint]
		switch {
		case !seen:
			byThumb[c.Thumbprint] = c
			order = append(order, c.Thumbprint)
		case !prev.HasPrivateKey() && c.HasPrivateKey():
			byThumb[c.Thumbprint] = c
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRepositoryUnavailable, s.dir, err)
	}

	out := make([]*Certificate, 0, len(order))
	for _, t := range order {
		out = append(out, byThumb[t])
	}
	return out, nil
}

// loadFile devuelve (nil, nil) para archivos que no son certificados
// (claves sueltas, README, etc).
func (s *DirSource) loadFile(path string) (*Certificate, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pem", ".crt", ".cer":
		return s.loadPEM(path)
	case ".pfx", ".p12":
		return s.loadPFX(path)
	default:
		return nil, nil
	}
}

func (s *DirSource) loadPEM(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var leaf *x509.Certificate
	var key crypto.PrivateKey
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE" && leaf == nil:
			if leaf, err = x509.ParseCertificate(block.Bytes); err != nil {
				return nil, fmt.Errorf("parse certificate: %w", err)
			}
		case strings.HasSuffix(block.Type, "PRIVATE KEY") && key == nil:
			if key, err = parsePrivateKey(block.Bytes); err != nil {
				return nil, fmt.Errorf("parse private key: %w", err)
			}
		}
	}
	if leaf == nil {
		// DER suelto (.cer de Windows)
		if c, derErr := x509.ParseCertificate(data); derErr == nil {
			leaf = c
		} else {
			return nil, nil
		}
	}

	c := New(leaf)
	c.Origin = path
	c.PrivateKey = key
	if key == nil {
		s.attachCompanionKey(c, path)
	}
	return c, nil
}

// attachCompanionKey busca la clave junto al certificado:
// <stem>.key, privkey.pem (layout certbot/lego) o <stem>.jwk.
func (s *DirSource) attachCompanionKey(c *Certificate, certPath string) {
	dir := filepath.Dir(certPath)
	stem := strings.TrimSuffix(filepath.Base(certPath), filepath.Ext(certPath))

	candidates := []string{filepath.Join(dir, stem+".key")}
	if stem == "fullchain" || stem == "cert" {
		candidates = append(candidates, filepath.Join(dir, "privkey.pem"))
	}
	for _, p := range candidates {
		key, err := readPEMKey(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			s.log.Debug("private key not accessible", logger.String("path", p), logger.Err(err))
			continue
		}
		c.PrivateKey = key
		return
	}

	if raw, err := os.ReadFile(filepath.Join(dir, stem+".jwk")); err == nil {
		c.KeyJWK = raw
	}
}

func (s *DirSource) loadPFX(path string) (*Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, leaf, err := pkcs12.Decode(data, s.pfxPassword)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12: %w", err)
	}
	c := New(leaf)
	c.Origin = path
	c.PrivateKey = key
	return c, nil
}

func readPEMKey(path string) (crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("no private key block in %s", path)
		}
		if strings.HasSuffix(block.Type, "PRIVATE KEY") {
			return parsePrivateKey(block.Bytes)
		}
	}
}

// parsePrivateKey acepta PKCS#8, PKCS#1 (RSA) y SEC 1 (EC).
func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if k, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return k, nil
	}
	if k, err := x509.ParseECPrivateKey(der); err == nil {
		return k, nil
	}
	return nil, errors.New("unsupported private key encoding")
}
