package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/coachhub/platform/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-for-tests-0123456789abcdef"
	refreshSecret = "refresh-secret-for-tests-0123456789abcdef"
)

func newKey(t *testing.T, secret string, opts jwtx.VerifyOptions) *jwtx.HS256Key {
	t.Helper()
	k, err := jwtx.NewHS256([]byte(secret), opts)
	require.NoError(t, err)
	return k
}

func TestNewHS256(t *testing.T) {
	t.Run("rejects short secrets", func(t *testing.T) {
		_, err := jwtx.NewHS256([]byte("short"), jwtx.VerifyOptions{})
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})

	t.Run("reports HS256", func(t *testing.T) {
		require.Equal(t, "HS256", newKey(t, accessSecret, jwtx.VerifyOptions{}).Alg())
	})
}

func TestHS256SignVerify(t *testing.T) {
	key := newKey(t, accessSecret, jwtx.VerifyOptions{Issuer: "coach-auth"})
	now := time.Now()

	t.Run("round trip", func(t *testing.T) {
		raw, err := key.Sign(jwtx.NewAccessClaims("user-1", "a@x.com", "client", time.Minute, "coach-auth", now))
		require.NoError(t, err)
		require.Len(t, strings.Split(raw, "."), 3)

		claims, err := key.Verify(raw)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, jwtx.TypeAccess, claims.Type)
		require.Equal(t, "a@x.com", claims.Email)
		require.Equal(t, "client", claims.Role)
	})

	t.Run("wrong secret is an invalid signature", func(t *testing.T) {
		other := newKey(t, refreshSecret, jwtx.VerifyOptions{})
		raw, err := other.Sign(jwtx.NewRefreshClaims("user-1", time.Hour, "coach-auth", now))
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("expired token", func(t *testing.T) {
		raw, err := key.Sign(jwtx.NewAccessClaims("user-1", "", "", time.Minute, "coach-auth", now.Add(-time.Hour)))
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("expired token with bad signature reports signature", func(t *testing.T) {
		other := newKey(t, refreshSecret, jwtx.VerifyOptions{})
		raw, err := other.Sign(jwtx.NewAccessClaims("user-1", "", "", time.Minute, "coach-auth", now.Add(-time.Hour)))
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
		require.NotErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := key.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		raw, err := key.Sign(jwtx.NewAccessClaims("user-1", "", "", time.Minute, "someone-else", now))
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("missing exp is rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "coach-auth"},
			Type:             jwtx.TypeAccess,
		})
		raw, err := tok.SignedString([]byte(accessSecret))
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.Error(t, err)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewAccessClaims("user-1", "", "", time.Minute, "coach-auth", now))
		raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = key.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}
