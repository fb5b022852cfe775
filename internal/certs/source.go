package certs

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrRepositoryUnavailable: el repositorio no pudo consultarse (IO, timeout).
var ErrRepositoryUnavailable = errors.New("certificate repository unavailable")

// Source consulta un repositorio de certificados por nombre de subject.
//
// Devuelve los candidatos ordenados por el ranking propio del repositorio.
// Sin coincidencias devuelve un slice vacío y err == nil.
type Source interface {
	FindBySubjectName(ctx context.Context, name string) ([]*Certificate, error)
}

// Ranking de coincidencia: menor es mejor.
const (
	rankCommonName = iota
	rankDNSName
	rankSubjectSubstring
)

// matchRank decide si c coincide con name y con qué calidad.
func matchRank(c *Certificate, name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	if strings.EqualFold(c.CommonName(), name) {
		return rankCommonName, true
	}
	if c.Leaf != nil {
		for _, dns := range c.Leaf.DNSNames {
			if dnsMatches(strings.ToLower(dns), name) {
				return rankDNSName, true
			}
		}
	}
	if strings.Contains(strings.ToLower(c.Subject), name) {
		return rankSubjectSubstring, true
	}
	return 0, false
}

// dnsMatches soporta un comodín en la etiqueta izquierda ("*.example.com").
func dnsMatches(pattern, host string) bool {
	if pattern == host {
		return true
	}
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	i := strings.IndexByte(host, '.')
	if i <= 0 {
		return false
	}
	return host[i+1:] == pattern[2:]
}

// rankMatches filtra y ordena: ranking, NotAfter descendente (el más nuevo
// primero) y thumbprint para que el orden sea determinista.
func rankMatches(all []*Certificate, name string) []*Certificate {
	type ranked struct {
		c    *Certificate
		rank int
	}
	hits := make([]ranked, 0, len(all))
	for _, c := range all {
		if r, ok := matchRank(c, name); ok {
			hits = append(hits, ranked{c: c, rank: r})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if !a.c.NotAfter.Equal(b.c.NotAfter) {
			return a.c.NotAfter.After(b.c.NotAfter)
		}
		return a.c.Thumbprint < b.c.Thumbprint
	})
	out := make([]*Certificate, len(hits))
	for i, h := range hits {
		out[i] = h.c
	}
	return out
}
