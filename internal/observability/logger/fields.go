package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - CERTIFICADOS / CLAVES
// =================================================================================

// Subject es el subject (DN) del certificado.
func Subject(v string) zap.Field { return zap.String("subject", v) }

// Thumbprint es la huella SHA-1 (hex) que identifica un certificado.
func Thumbprint(v string) zap.Field { return zap.String("thumbprint", v) }

// Expiration formatea NotAfter en RFC3339 UTC.
func Expiration(v time.Time) zap.Field {
	return zap.String("expiration", v.UTC().Format(time.RFC3339))
}

// Identity es el nombre buscado en el repositorio (normalmente el host del issuer).
func Identity(v string) zap.Field { return zap.String("identity", v) }

func Algorithm(v string) zap.Field { return zap.String("alg", v) }

func KeyID(v string) zap.Field { return zap.String("kid", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func Count(v int) zap.Field { return zap.Int("count", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
