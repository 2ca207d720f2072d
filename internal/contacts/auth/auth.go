// Package auth verifies bearer credentials and binds the decoded identity to
// the requested resource owner.
package auth

import (
	"crypto/rsa"
	"fmt"
	"strings"

	dErrors "contacts/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
)

// deniedMessage is the only authentication failure the caller ever sees.
// Bad signatures, expired tokens, and identity mismatches are intentionally
// indistinguishable at the boundary.
const deniedMessage = "authentication denied"

// Claims is the decoded, verified payload of a bearer credential.
type Claims struct {
	// User is the subject identity.
	User string `json:"user"`
	// Acct is the caller's own primary account number, required for writes.
	Acct string `json:"acct"`
	jwt.RegisteredClaims
}

// Verifier checks bearer token signatures against a fixed RSA public key.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses a PEM-encoded RSA public key into a Verifier.
func NewVerifier(publicKeyPEM []byte) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return &Verifier{publicKey: key}, nil
}

// TokenFromHeader extracts the token from an Authorization header value.
// Only the final whitespace-delimited segment is treated as the token, so
// the scheme word is optional. An absent header yields an empty token,
// which always fails verification.
func TokenFromHeader(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Verify checks the token signature and timestamp claims and returns the
// decoded claims. Any failure surfaces as a generic unauthorized error.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, deniedMessage)
	}
	return claims, nil
}

// Authenticate verifies the Authorization header and confirms the caller is
// acting on their own resource. The identity check fails with the exact same
// error as a bad signature so the boundary never leaks which check failed.
func (v *Verifier) Authenticate(authHeader, username string) (*Claims, error) {
	claims, err := v.Verify(TokenFromHeader(authHeader))
	if err != nil {
		return nil, err
	}
	if claims.User != username {
		return nil, dErrors.New(dErrors.CodeUnauthorized, deniedMessage)
	}
	return claims, nil
}
