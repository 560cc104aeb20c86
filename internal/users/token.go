package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hgcsasdas/FFHS/internal/core"
)

// ErrInvalidToken means the token is malformed, expired, or has a bad
// signature.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried in the JWTs issued to authenticated users.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 JWTs for the management API.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  core.Clock
}

// NewTokenIssuer creates a TokenIssuer signing with secret. Tokens expire
// after ttl.
func NewTokenIssuer(secret []byte, ttl time.Duration, clock core.Clock) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, clock: clock}
}

// Issue returns a signed token for the user.
func (i *TokenIssuer) Issue(user *User) (string, error) {
	now := i.clock.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
