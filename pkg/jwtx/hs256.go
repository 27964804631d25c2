package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewHS256 accepts (256 bits).
const MinSecretLength = 32

// HS256Key signs and verifies JWTs with a shared HMAC-SHA256 secret.
type HS256Key struct {
	secret []byte
	opts   VerifyOptions
}

// NewHS256 creates an HS256 key from a shared secret.
func NewHS256(secret []byte, opts VerifyOptions) (*HS256Key, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(secret))
	}

	// Copy so callers can't mutate the secret underneath us
	s := make([]byte, len(secret))
	copy(s, secret)

	return &HS256Key{secret: s, opts: opts}, nil
}

func (k *HS256Key) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (k *HS256Key) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
}

// Verify validates the JWT string and returns its parsed Claims. The
// signature is checked before any claim, so an expired token with a bad
// signature reports ErrInvalidSig rather than ErrExpired.
func (k *HS256Key) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(k.opts.Leeway),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return k.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(k.opts.Issuer); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// classify maps golang-jwt errors onto the jwtx sentinels while keeping the
// original error in the chain for logging.
func classify(err error) error {
	var sentinel error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		sentinel = ErrMalformed
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, jwt.ErrTokenSignatureInvalid):
		sentinel = ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		sentinel = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		sentinel = ErrNotYetValid
	default:
		sentinel = ErrInvalidClaim
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
