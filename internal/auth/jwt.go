// Package auth issues and verifies signed identity tokens bound to a user ID.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned when a token fails signature or structure checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the standard JWT claims plus the user identifier.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Issuer signs and verifies tokens with a process-wide HMAC secret.
// A zero TTL means issued tokens carry no expiry claim and stay valid
// until the secret is rotated; any other TTL is stamped into the expiry
// claim as-is.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer constructs an Issuer. The secret must be non-empty.
func NewIssuer(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is not configured")
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

// Issue produces a signed token whose payload binds the given user ID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if i.ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks the token's signature and structure and returns the user ID
// it was issued for. Any failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
