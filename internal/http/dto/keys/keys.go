// Package keys contiene DTOs del listado de validation keys.
package keys

import "time"

// KeyInfo describe una validation key retenida.
type KeyInfo struct {
	KeyID      string    `json:"kid"`
	Algorithm  string    `json:"alg"`
	Thumbprint string    `json:"thumbprint"`
	Subject    string    `json:"subject"`
	NotAfter   time.Time `json:"not_after"`
	Active     bool      `json:"active"`
}

// KeysResponse es la respuesta de GET /v1/keys.
type KeysResponse struct {
	Identity string    `json:"identity"`
	Keys     []KeyInfo `json:"keys"`
}
