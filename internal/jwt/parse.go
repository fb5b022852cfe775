package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/certkeys/internal/credential"
)

const clockSkew = 30 * time.Second

// Parse valida firma (por kid contra las validation keys), chequea iss (si
// expectedIss != "") y exp/nbf con una pequeña tolerancia. Devuelve las claims
// como map[string]any.
func (i *Issuer) Parse(ctx context.Context, token, expectedIss string) (map[string]any, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods(credential.SupportedAlgorithms()),
		jwtv5.WithLeeway(clockSkew),
		jwtv5.WithTimeFunc(i.clock),
	}
	if expectedIss != "" {
		opts = append(opts, jwtv5.WithIssuer(expectedIss))
	}

	tok, err := jwtv5.Parse(token, i.Keyfunc(ctx), opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenInvalidIssuer):
			return nil, ErrInvalidIssuer
		case errors.Is(err, ErrKIDMissing), errors.Is(err, ErrUnknownKID):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWT, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidJWT
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("claims_type")
	}
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, nil
}
