// Package service implements session-token issuance and verification.
package service

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
)

// TokenAuthority issues and verifies signed session tokens.
//
// Tokens are stateless credentials: validity is determined entirely by the
// Ed25519 signature and the embedded expiry, with no server-side lookup.
// There is no revocation list; a leaked token stays valid until it expires.
type TokenAuthority interface {
	// Issue signs a session token asserting the given username as subject.
	Issue(subject string) (string, error)

	// Verify checks signature and expiry and returns the asserted username.
	// Fails closed with ErrInvalidToken on any verification failure.
	Verify(token string) (string, error)
}

// tokenAuthority implements TokenAuthority using EdDSA-signed JWTs.
type tokenAuthority struct {
	key *authDomain.SigningKey
	ttl time.Duration
}

// NewTokenAuthority creates a TokenAuthority using the process-wide signing
// key. Issued tokens expire after ttl.
func NewTokenAuthority(key *authDomain.SigningKey, ttl time.Duration) TokenAuthority {
	return &tokenAuthority{key: key, ttl: ttl}
}

// Issue signs a token carrying the subject, issuance time, and expiry.
func (a *tokenAuthority) Issue(subject string) (string, error) {
	now := time.Now().UTC()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)

	signed, err := token.SignedString(a.key.Private)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Verify validates the token signature and expiry and returns the subject.
func (a *tokenAuthority) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return ed25519.PublicKey(a.key.Public), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", authDomain.ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", authDomain.ErrInvalidToken
	}

	return claims.Subject, nil
}
