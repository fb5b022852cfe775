package credential

import (
	"errors"
	"fmt"
)

var (
	// ErrPolicyViolation: el certificado candidato no cumple la política.
	ErrPolicyViolation = errors.New("signing credential policy violation")

	// ErrUnsupportedAlgorithm: el algoritmo configurado no está en la allow-list.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// PolicyError detalla qué regla rechazó a qué certificado.
type PolicyError struct {
	Thumbprint string
	Subject    string
	Reason     string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("certificate %s (%s) rejected: %s", e.Thumbprint, e.Subject, e.Reason)
}

// Unwrap permite errors.Is(err, ErrPolicyViolation).
func (e *PolicyError) Unwrap() error { return ErrPolicyViolation }
