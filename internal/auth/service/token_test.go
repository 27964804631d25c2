package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireReason(t *testing.T, err error, reason service.RefreshReason, public error) {
	t.Helper()
	var re *service.RefreshError
	require.ErrorAs(t, err, &re)
	require.Equal(t, reason, re.Reason)
	require.ErrorIs(t, err, public)
	require.ErrorIs(t, re.Public(), public)
}

func TestGenerateAuthResponse(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	resp := h.register(t, "jamie@example.com", "+61400000001")

	t.Run("access token carries identity", func(t *testing.T) {
		claims, err := h.tokens.AccessKey.Verify(resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TypeAccess, claims.Type)
		require.Equal(t, resp.User.ID, claims.Subject)
		require.Equal(t, "jamie@example.com", claims.Email)
		require.Equal(t, "client", claims.Role)
	})

	t.Run("refresh token carries only subject", func(t *testing.T) {
		claims, err := h.tokens.RefreshKey.Verify(resp.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, jwtx.TypeRefresh, claims.Type)
		require.Empty(t, claims.Email)
		require.Empty(t, claims.Role)
	})

	t.Run("only the fingerprint is stored", func(t *testing.T) {
		u, err := h.store.Users().GetUserByID(ctx, resp.User.ID)
		require.NoError(t, err)
		require.NotNil(t, u.RefreshTokenHash)
		require.Equal(t, cryptox.FingerprintToken(resp.RefreshToken), *u.RefreshTokenHash)
		require.NotEqual(t, resp.RefreshToken, *u.RefreshTokenHash)
		require.WithinDuration(t, time.Now().Add(7*24*time.Hour), *u.RefreshTokenExpiresAt, time.Minute)
	})
}

func TestValidateAccessToken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	resp := h.register(t, "jamie@example.com", "+61400000001")

	t.Run("valid", func(t *testing.T) {
		p, err := h.tokens.ValidateAccessToken(ctx, resp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, domain.Principal{ID: resp.User.ID, Email: "jamie@example.com", Role: domain.RoleClient}, p)
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		_, err := h.tokens.ValidateAccessToken(ctx, resp.RefreshToken)
		require.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("refresh typed token under the access key is rejected", func(t *testing.T) {
		raw, err := h.tokens.AccessKey.Sign(jwtx.NewRefreshClaims(resp.User.ID, time.Hour, issuer, time.Now()))
		require.NoError(t, err)
		_, err = h.tokens.ValidateAccessToken(ctx, raw)
		require.ErrorIs(t, err, service.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrTypeMismatch)
	})

	t.Run("expired", func(t *testing.T) {
		past := *h.tokens
		past.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		u, err := h.store.Users().GetUserByID(ctx, resp.User.ID)
		require.NoError(t, err)
		raw, err := past.GenerateAccessToken(u)
		require.NoError(t, err)

		_, err = h.tokens.ValidateAccessToken(ctx, raw)
		require.ErrorIs(t, err, service.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown subject", func(t *testing.T) {
		raw, err := h.tokens.GenerateAccessToken(domain.User{ID: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", Role: domain.RoleClient})
		require.NoError(t, err)
		_, err = h.tokens.ValidateAccessToken(ctx, raw)
		require.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("deactivated user", func(t *testing.T) {
		_, err := h.users.SetActive(ctx, resp.User.ID, false)
		require.NoError(t, err)

		_, err = h.tokens.ValidateAccessToken(ctx, resp.AccessToken)
		require.ErrorIs(t, err, service.ErrInvalidToken)
		require.ErrorIs(t, err, service.ErrAccountDeactivated)
	})
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("rotation makes the old token single use", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")

		pair, err := h.tokens.RefreshTokens(ctx, resp.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, resp.RefreshToken, pair.RefreshToken)

		_, err = h.tokens.ValidateAccessToken(ctx, pair.AccessToken)
		require.NoError(t, err)

		_, err = h.tokens.RefreshTokens(ctx, resp.RefreshToken)
		requireReason(t, err, service.ReasonTokenMismatch, service.ErrInvalidRefreshToken)

		again, err := h.tokens.RefreshTokens(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, again.RefreshToken)
	})

	t.Run("login supersedes earlier refresh tokens", func(t *testing.T) {
		h := newHarness(t)
		first := h.register(t, "jamie@example.com", "+61400000001")

		_, err := h.auth.Login(ctx, "jamie@example.com", "hunter22")
		require.NoError(t, err)

		_, err = h.tokens.RefreshTokens(ctx, first.RefreshToken)
		requireReason(t, err, service.ReasonTokenMismatch, service.ErrInvalidRefreshToken)
	})

	t.Run("garbage", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.tokens.RefreshTokens(ctx, "not-a-token")
		requireReason(t, err, service.ReasonInvalidSignature, service.ErrInvalidRefreshToken)
	})

	t.Run("access token under the wrong key", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		_, err := h.tokens.RefreshTokens(ctx, resp.AccessToken)
		requireReason(t, err, service.ReasonInvalidSignature, service.ErrInvalidRefreshToken)
	})

	t.Run("access typed token under the refresh key", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		raw, err := h.tokens.RefreshKey.Sign(jwtx.NewAccessClaims(resp.User.ID, "", "", time.Hour, issuer, time.Now()))
		require.NoError(t, err)

		_, err = h.tokens.RefreshTokens(ctx, raw)
		requireReason(t, err, service.ReasonTypeMismatch, service.ErrInvalidRefreshToken)
	})

	t.Run("expired jwt", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		u, err := h.store.Users().GetUserByID(ctx, resp.User.ID)
		require.NoError(t, err)

		past := *h.tokens
		past.Now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
		raw, err := past.GenerateRefreshToken(ctx, u)
		require.NoError(t, err)

		_, err = h.tokens.RefreshTokens(ctx, raw)
		requireReason(t, err, service.ReasonExpired, service.ErrInvalidRefreshToken)
	})

	t.Run("stored expiry in the past", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		fp := cryptox.FingerprintToken(resp.RefreshToken)
		require.NoError(t, h.store.Users().SetRefreshToken(ctx, resp.User.ID, fp, time.Now().Add(-time.Second)))

		_, err := h.tokens.RefreshTokens(ctx, resp.RefreshToken)
		requireReason(t, err, service.ReasonStoredExpiry, service.ErrRefreshTokenExpired)
		require.NotErrorIs(t, err, service.ErrInvalidRefreshToken)
	})

	t.Run("stored expiry exactly now", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")

		// Stored expiries keep millisecond precision.
		at := time.Now().Add(time.Hour).Truncate(time.Millisecond)
		fp := cryptox.FingerprintToken(resp.RefreshToken)
		require.NoError(t, h.store.Users().SetRefreshToken(ctx, resp.User.ID, fp, at))

		tokens := *h.tokens
		tokens.Now = func() time.Time { return at }

		_, err := tokens.RefreshTokens(ctx, resp.RefreshToken)
		requireReason(t, err, service.ReasonStoredExpiry, service.ErrRefreshTokenExpired)

		tokens.Now = func() time.Time { return at.Add(-time.Millisecond) }
		_, err = tokens.RefreshTokens(ctx, resp.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("after logout", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		require.NoError(t, h.tokens.Logout(ctx, resp.User.ID))

		_, err := h.tokens.RefreshTokens(ctx, resp.RefreshToken)
		requireReason(t, err, service.ReasonTokenMismatch, service.ErrInvalidRefreshToken)
	})

	t.Run("deactivated user", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")
		require.NoError(t, h.store.Users().SetActive(ctx, resp.User.ID, false))

		_, err := h.tokens.RefreshTokens(ctx, resp.RefreshToken)
		requireReason(t, err, service.ReasonUserInactive, service.ErrInvalidRefreshToken)
	})

	t.Run("concurrent refreshes have one winner", func(t *testing.T) {
		h := newHarness(t)
		resp := h.register(t, "jamie@example.com", "+61400000001")

		const n = 6
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins []domain.TokenPair
		)
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pair, err := h.tokens.RefreshTokens(ctx, resp.RefreshToken)
				if err != nil {
					assert.ErrorIs(t, err, service.ErrInvalidRefreshToken)
					return
				}
				mu.Lock()
				wins = append(wins, pair)
				mu.Unlock()
			}()
		}
		wg.Wait()

		require.Len(t, wins, 1)
		u, err := h.store.Users().GetUserByID(ctx, resp.User.ID)
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(wins[0].RefreshToken), *u.RefreshTokenHash)
	})
}

func TestLogoutUnknownUser(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.tokens.Logout(context.Background(), "missing"), service.ErrUserNotFound)
}
