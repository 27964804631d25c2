package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/slogx"
)

// AuthService implements public registration and password login.
type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Events  EventPublisher
	Metrics *metrics.Metrics

	// RestrictAdmin rejects role=admin on self-registration.
	RestrictAdmin bool
}

// Register creates an active account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.AuthResponse, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.AuthResponse{}, err
	}
	if err := selfServiceRole(in.Role, s.RestrictAdmin); err != nil {
		return domain.AuthResponse{}, err
	}
	if err := ensureAvailable(ctx, s.Store.Users(), in.Email, in.Phone); err != nil {
		return domain.AuthResponse{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	u := newUser(in, hash, time.Now().UTC())
	if err := insertUser(ctx, s.Store.Users(), u); err != nil {
		return domain.AuthResponse{}, err
	}

	resp, err := s.Tokens.GenerateAuthResponse(ctx, u)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	s.Metrics.ObserveRegistration("direct")
	publishBestEffort(ctx, s.Events, registeredEvent(u))
	return resp, nil
}

// Login checks the password first, so ErrAccountDeactivated is only revealed
// to callers who know the password.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.AuthResponse, error) {
	l := slogx.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same hashing time as a real mismatch.
		_ = cryptox.VerifyPassword(password, dummyHash())
		s.Metrics.ObserveLogin("invalid_credentials")
		return domain.AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.AuthResponse{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrInvalidHash) {
			l.Error("stored password hash is unreadable", "user_id", u.ID, "err", err)
		}
		s.Metrics.ObserveLogin("invalid_credentials")
		return domain.AuthResponse{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		s.Metrics.ObserveLogin("deactivated")
		return domain.AuthResponse{}, ErrAccountDeactivated
	}

	resp, err := s.Tokens.GenerateAuthResponse(ctx, u)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	s.Metrics.ObserveLogin("success")
	return resp, nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = cryptox.HashPassword("not-a-real-password")
	})
	return dummy
}

func registeredEvent(u domain.User) domain.Event {
	return domain.Event{
		Type:   domain.EventUserRegistered,
		UserID: u.ID,
		Email:  u.Email,
		Data: map[string]string{
			"firstName": u.FirstName,
			"role":      u.Role.String(),
		},
		OccurredAt: time.Now().UTC(),
	}
}
