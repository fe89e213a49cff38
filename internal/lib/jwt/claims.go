// Package jwt implements the token codec: signed, time-bound identity claims
// carried as three dot-separated base64url segments (header.payload.signature).
//
// The payload contains exactly id, username, email, role, and exp. Signature
// verification uses HMAC-SHA-256 with a constant-time comparison, and any
// structural, signature, or expiry failure surfaces as a parse error.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity payload embedded in every issued token.
type Claims struct {
	UserID               string `json:"id"`       // User UUID
	Username             string `json:"username"` // Login name
	Email                string `json:"email"`    // E-mail address
	Role                 string `json:"role"`     // admin or editor
	jwt.RegisteredClaims        // Only ExpiresAt is set, keeping the payload minimal
}

// Maker issues and verifies identity tokens.
type Maker interface {
	// GenerateToken signs a fresh claim expiring after the configured TTL.
	GenerateToken(id, username, email, role string) (string, error)
	// ParseToken verifies a token and returns its claims, or an error for
	// malformed, tampered, or expired tokens.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl implements Maker with a shared secret and a fixed TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker builds a MakerImpl from the signing secret and token lifetime.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
