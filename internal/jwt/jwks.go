package jwt

import (
	"encoding/json"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/dropDatabas3/certkeys/internal/credential"
)

// BuildJWKS construye el JWKS JSON (solo material público) a partir de las
// validation keys, en el orden recibido.
func BuildJWKS(keys []credential.ValidationKey) ([]byte, error) {
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(keys))}
	for _, k := range keys {
		if k.PublicKey == nil {
			continue
		}
		set.Keys = append(set.Keys, k.JWK())
	}
	return json.Marshal(set)
}
