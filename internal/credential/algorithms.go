package credential

import (
	"crypto/elliptic"
	"strings"
)

// DefaultAlgorithm es la elección fija de la política si no se configura otra.
const DefaultAlgorithm = "RS256"

// Curvas soportadas para JWK (valor "crv").
const (
	CurveP256 = "P-256"
	CurveP384 = "P-384"
	CurveP521 = "P-521"
)

// supported es la allow-list; el valor es la curva obligatoria para ES*.
var supported = map[string]string{
	"RS256": "", "RS384": "", "RS512": "",
	"PS256": "", "PS384": "", "PS512": "",
	"ES256": CurveP256, "ES384": CurveP384, "ES512": CurveP521,
}

// SupportedAlgorithms devuelve la allow-list en orden estable.
func SupportedAlgorithms() []string {
	return []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}
}

// IsSupported compara de forma exacta (los nombres JWS son case-sensitive).
func IsSupported(alg string) bool {
	_, ok := supported[alg]
	return ok
}

func isRSAFamily(alg string) bool {
	return strings.HasPrefix(alg, "RS") || strings.HasPrefix(alg, "PS")
}

func isECFamily(alg string) bool { return strings.HasPrefix(alg, "ES") }

// curveForAlgorithm: "" si el algoritmo no exige curva.
func curveForAlgorithm(alg string) string { return supported[alg] }

func curveName(c elliptic.Curve) string {
	if c == nil || c.Params() == nil {
		return ""
	}
	return c.Params().Name
}

func isValidCrv(crv string) bool {
	return crv == CurveP256 || crv == CurveP384 || crv == CurveP521
}
