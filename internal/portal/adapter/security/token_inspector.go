package security

import (
	"errors"
	"fmt"

	"afi-portal/internal/portal/domain/repository"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenMalformed = errors.New("access token is not a JWT")

// JWTInspector reads the registered claims of an access token without
// checking its signature. The portal never holds the signing key; the
// identity API remains the only authority on token validity.
type JWTInspector struct {
	parser *jwt.Parser
}

var _ repository.TokenInspector = (*JWTInspector)(nil)

func NewJWTInspector() *JWTInspector {
	return &JWTInspector{parser: jwt.NewParser()}
}

// Inspect returns sub and exp. Opaque tokens yield ErrTokenMalformed.
func (i *JWTInspector) Inspect(accessToken string) (repository.TokenMetadata, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(accessToken, &claims); err != nil {
		return repository.TokenMetadata{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	meta := repository.TokenMetadata{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		meta.ExpiresAt = &exp
	}
	return meta, nil
}
