package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/xy-planning-network/waypoint"
)

// A Signer issues and verifies session tokens:
// HS256 JWTs carrying nothing but the session identifier as their "jti" claim.
type Signer struct {
	secret []byte
}

// NewSigner constructs a *Signer using secret as the HMAC key.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret cannot be empty", waypoint.ErrBadConfig)
	}

	return &Signer{secret: []byte(secret)}, nil
}

// Sign wraps id in a signed token.
func (s *Signer) Sign(id string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: id})
	return token.SignedString(s.secret)
}

// Verify checks token's signature and returns the session identifier it wraps.
//
// Verify returns ErrInvalidToken for an empty, altered, or foreign token,
// or when the identifier it carries is not UUID-shaped.
func (s *Signer) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims := new(jwt.RegisteredClaims)
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if !ValidID(claims.ID) {
		return "", fmt.Errorf("%w: malformed id %q", ErrInvalidToken, claims.ID)
	}

	return claims.ID, nil
}
