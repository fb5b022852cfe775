package keystore

import "errors"

var (
	// ErrConfiguration: la identidad objetivo u otra opción no es utilizable.
	// Fatal en construcción.
	ErrConfiguration = errors.New("keystore configuration error")

	// ErrNoAcceptableCertificate: no hay ningún certificado vivo y aceptable para
	// la identidad y tampoco hay uno activo. Fatal en el arranque.
	ErrNoAcceptableCertificate = errors.New("no acceptable signing certificate")
)
