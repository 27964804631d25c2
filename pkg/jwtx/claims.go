package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coachhub/platform/pkg/idx"
)

// Default token TTL constants. Both can be overridden per-service through
// configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token types carried in the "type" claim. Access and refresh tokens are
// signed with different secrets, the type claim stops one being accepted
// where the other is expected if the secrets are ever shared.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims are the claims embedded in both access and refresh tokens. Refresh
// tokens only ever carry the registered claims plus Type.
type Claims struct {
	jwt.RegisteredClaims

	// Type is either TypeAccess or TypeRefresh.
	Type string `json:"type"`

	// Email of the subject, access tokens only.
	Email string `json:"email,omitempty"`

	// Role of the subject (client, coach, admin), access tokens only.
	Role string `json:"role,omitempty"`
}

// NewAccessClaims builds the claims for an access token.
func NewAccessClaims(
	subject, email, role string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Type:             TypeAccess,
		Email:            email,
		Role:             role,
	}
}

// NewRefreshClaims builds the claims for a refresh token.
func NewRefreshClaims(subject string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Type:             TypeRefresh,
	}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        idx.NewAt(now).String(),
	}
}

// ValidateType checks the "type" claim.
func (c *Claims) ValidateType(expected string) error {
	if c.Type != expected {
		return ErrTypeMismatch
	}
	return nil
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}
