package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/jwtx"
	"github.com/coachhub/platform/pkg/slogx"
	"github.com/coachhub/platform/pkg/tracex"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = tracex.Tracer("github.com/coachhub/platform/internal/auth/service")

// TokenService issues, validates and rotates access/refresh token pairs.
// Access and refresh tokens use distinct keys so one can never be replayed as
// the other even if the type claim were ignored.
type TokenService struct {
	Store      store.Store
	AccessKey  jwtx.Key
	RefreshKey jwtx.Key
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Metrics    *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// GenerateAccessToken signs an access token for u. It has no side effects.
func (s *TokenService) GenerateAccessToken(u domain.User) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, u.Role.String(), s.accessTTL(), s.Issuer, s.now())
	raw, err := s.AccessKey.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return raw, nil
}

func (s *TokenService) signRefresh(userID string) (raw string, expiresAt time.Time, err error) {
	now := s.now()
	claims := jwtx.NewRefreshClaims(userID, s.refreshTTL(), s.Issuer, now)
	raw, err = s.RefreshKey.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return raw, claims.ExpiresAt.Time, nil
}

// GenerateRefreshToken signs a refresh token for u and stores its
// fingerprint, superseding any refresh token issued before.
func (s *TokenService) GenerateRefreshToken(ctx context.Context, u domain.User) (string, error) {
	raw, expiresAt, err := s.signRefresh(u.ID)
	if err != nil {
		return "", err
	}
	if err := s.Store.Users().SetRefreshToken(ctx, u.ID, cryptox.FingerprintToken(raw), expiresAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// GenerateAuthResponse mints both tokens and returns them with the user's
// current public profile.
func (s *TokenService) GenerateAuthResponse(ctx context.Context, u domain.User) (domain.AuthResponse, error) {
	access, err := s.GenerateAccessToken(u)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	refresh, err := s.GenerateRefreshToken(ctx, u)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	current, err := s.Store.Users().GetUserByID(ctx, u.ID)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("reload user: %w", err)
	}

	return domain.AuthResponse{
		User:         current.Public(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// ValidateAccessToken verifies an access token and resolves it to the stored
// user. Every rejection matches ErrInvalidToken; storage failures don't.
func (s *TokenService) ValidateAccessToken(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := s.AccessKey.Verify(raw)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if err := claims.ValidateType(jwtx.TypeAccess); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrUserNotFound)
		}
		return domain.Principal{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrAccountDeactivated)
	}

	return domain.Principal{ID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The presented token
// becomes unusable. Failures are *RefreshError values; only their Public()
// error should reach clients.
func (s *TokenService) RefreshTokens(ctx context.Context, raw string) (domain.TokenPair, error) {
	ctx, span := tracer.Start(ctx, "TokenService.RefreshTokens")
	defer span.End()

	pair, err := s.refresh(ctx, raw)

	outcome := "success"
	if err != nil {
		outcome = string(err.Reason)
		level := slog.LevelInfo
		if err.Reason == ReasonInternal {
			level = slog.LevelError
		}
		slogx.FromContext(ctx).Log(ctx, level, "refresh rejected", "reason", err.Reason, "err", err.Err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.String("auth.refresh.outcome", outcome))
	s.Metrics.ObserveRefresh(outcome)

	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

func (s *TokenService) refresh(ctx context.Context, raw string) (domain.TokenPair, *RefreshError) {
	claims, err := s.RefreshKey.Verify(raw)
	if errors.Is(err, jwtx.ErrExpired) {
		return domain.TokenPair{}, rejectRefresh(ReasonExpired, err)
	}
	if err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonInvalidSignature, err)
	}
	if err := claims.ValidateType(jwtx.TypeRefresh); err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonTypeMismatch, err)
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, rejectRefresh(ReasonUserNotFound, err)
	}
	if err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonInternal, err)
	}
	if !u.IsActive {
		return domain.TokenPair{}, rejectRefresh(ReasonUserInactive, ErrAccountDeactivated)
	}

	presented := cryptox.FingerprintToken(raw)
	if u.RefreshTokenHash == nil || !cryptox.TokensEqual(*u.RefreshTokenHash, presented) {
		return domain.TokenPair{}, rejectRefresh(ReasonTokenMismatch, nil)
	}

	// The JWT exp was already checked; this catches stored state that was
	// shortened or cleared independently of the token.
	if u.RefreshTokenExpiresAt == nil || !s.now().Before(*u.RefreshTokenExpiresAt) {
		return domain.TokenPair{}, rejectRefresh(ReasonStoredExpiry, nil)
	}

	access, err := s.GenerateAccessToken(u)
	if err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonInternal, err)
	}
	next, expiresAt, err := s.signRefresh(u.ID)
	if err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonInternal, err)
	}

	// Compare-and-swap on the presented fingerprint: of two concurrent
	// refreshes with the same token exactly one wins.
	err = s.Store.Users().RotateRefreshToken(ctx, u.ID, presented, cryptox.FingerprintToken(next), expiresAt)
	if errors.Is(err, store.ErrConditionFailed) {
		return domain.TokenPair{}, rejectRefresh(ReasonTokenMismatch, err)
	}
	if err != nil {
		return domain.TokenPair{}, rejectRefresh(ReasonInternal, err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout drops the user's stored refresh token. Access tokens already issued
// stay valid until they expire.
func (s *TokenService) Logout(ctx context.Context, userID string) error {
	if err := s.Store.Users().ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
