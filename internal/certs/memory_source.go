package certs

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemorySource es un repositorio en proceso. Útil en tests y para quien
// embebe el keystore y obtiene los certificados por otra vía.
type MemorySource struct {
	mu          sync.RWMutex
	certs       map[string]*Certificate // thumbprint -> handle
	unavailable error
	delay       time.Duration
}

func NewMemorySource(initial ...*Certificate) *MemorySource {
	m := &MemorySource{certs: make(map[string]*Certificate)}
	m.Put(initial...)
	return m
}

// Put agrega (o reemplaza) certificados.
func (m *MemorySource) Put(cs ...*Certificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cs {
		if c.Origin == "" {
			c.Origin = "memory"
		}
		m.certs[c.Thumbprint] = c
	}
}

// Remove quita un certificado por thumbprint.
func (m *MemorySource) Remove(thumbprint string) {
	m.mu.Lock()
	delete(m.certs, thumbprint)
	m.mu.Unlock()
}

// SetUnavailable hace que las búsquedas fallen con err (nil lo restablece).
func (m *MemorySource) SetUnavailable(err error) {
	m.mu.Lock()
	m.unavailable = err
	m.mu.Unlock()
}

// SetDelay simula un repositorio lento.
func (m *MemorySource) SetDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

func (m *MemorySource) FindBySubjectName(ctx context.Context, name string) ([]*Certificate, error) {
	m.mu.RLock()
	delay, unavailable := m.delay, m.unavailable
	all := make([]*Certificate, 0, len(m.certs))
	for _, c := range m.certs {
		all = append(all, c)
	}
	m.mu.RUnlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, ctx.Err())
		case <-t.C:
		}
	}
	if unavailable != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, unavailable)
	}
	return rankMatches(all, name), nil
}
