package auth

import (
	"context"
	"errors"
)

// Identity is what a verified bearer token says about its holder
type Identity struct {
	TokenID   string // identity provider subject
	Username  string
	FirstName string
	LastName  string
	Role      string
}

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier turns a raw bearer token into an Identity
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// JWTVerifier verifies locally signed HS256 tokens
type JWTVerifier struct{}

// Verify implements TokenVerifier
func (JWTVerifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	claims, err := ValidateJWT(rawToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, errors.Join(ErrInvalidToken, errors.New("token has no subject"))
	}
	return &Identity{
		TokenID:   claims.Subject,
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Role:      claims.Role,
	}, nil
}
