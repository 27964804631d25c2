package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/kvx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// MaxOTPAttempts is the number of wrong codes after which a pending
	// signup is discarded.
	MaxOTPAttempts = 5

	DefaultSignupTTL = 10 * time.Minute

	signupKeyPrefix = "signup:"
)

// SignupService registers accounts in two steps: the profile is parked with
// a one-time code that is delivered by email, and the account is only created
// once the code comes back.
type SignupService struct {
	Store   store.Store
	KV      kvx.Store
	Tokens  *TokenService
	Events  EventPublisher
	Metrics *metrics.Metrics
	Issuer  string
	TTL     time.Duration

	// RestrictAdmin rejects role=admin, as AuthService does.
	RestrictAdmin bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SignupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SignupService) ttl() time.Duration {
	if s.TTL >= time.Second {
		return s.TTL
	}
	return DefaultSignupTTL
}

func (s *SignupService) otpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.ttl() / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func signupKey(email string) string { return signupKeyPrefix + email }

// RequestSignupOTP validates the profile, parks it and publishes the code.
// Requesting again for the same email replaces the pending signup.
func (s *SignupService) RequestSignupOTP(ctx context.Context, in RegisterInput) (time.Time, error) {
	in, err := in.normalize()
	if err != nil {
		return time.Time{}, err
	}
	if err := selfServiceRole(in.Role, s.RestrictAdmin); err != nil {
		return time.Time{}, err
	}
	if err := ensureAvailable(ctx, s.Store.Users(), in.Email, in.Phone); err != nil {
		return time.Time{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return time.Time{}, fmt.Errorf("hash password: %w", err)
	}

	opts := s.otpOpts()
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer(),
		AccountName: in.Email,
		Period:      opts.Period,
		Digits:      opts.Digits,
		Algorithm:   opts.Algorithm,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("generate otp secret: %w", err)
	}

	now := s.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, opts)
	if err != nil {
		return time.Time{}, fmt.Errorf("generate otp code: %w", err)
	}

	pending := domain.PendingSignup{
		Email:        in.Email,
		Phone:        in.Phone,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         in.Role,
		OTPSecret:    key.Secret(),
		ExpiresAt:    now.Add(s.ttl()),
	}
	if err := s.save(ctx, pending, now); err != nil {
		return time.Time{}, err
	}

	err = publisherOrDiscard(s.Events).Publish(ctx, domain.Event{
		Type:  domain.EventSignupOTPRequested,
		Email: in.Email,
		Data: map[string]string{
			"code":      code,
			"firstName": in.FirstName,
			"expiresAt": pending.ExpiresAt.UTC().Format(time.RFC3339),
		},
		OccurredAt: now.UTC(),
	})
	if err != nil {
		// Nobody can ever receive this code.
		_ = s.KV.Delete(ctx, signupKey(in.Email))
		return time.Time{}, fmt.Errorf("deliver otp: %w", err)
	}

	return pending.ExpiresAt, nil
}

// VerifySignupOTP creates the parked account when code is valid and signs it
// in. After MaxOTPAttempts wrong codes the pending signup is dropped.
func (s *SignupService) VerifySignupOTP(ctx context.Context, email, code string) (domain.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	now := s.now()

	pending, err := s.load(ctx, email)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	if !now.Before(pending.ExpiresAt) {
		_ = s.KV.Delete(ctx, signupKey(email))
		return domain.AuthResponse{}, ErrSignupNotFound
	}

	ok, err := totp.ValidateCustom(code, pending.OTPSecret, now, s.otpOpts())
	if err != nil && !errors.Is(err, otp.ErrValidateInputInvalidLength) {
		return domain.AuthResponse{}, fmt.Errorf("validate otp: %w", err)
	}
	if !ok {
		pending.Attempts++
		if pending.Attempts >= MaxOTPAttempts {
			_ = s.KV.Delete(ctx, signupKey(email))
			return domain.AuthResponse{}, ErrTooManyAttempts
		}
		if err := s.save(ctx, pending, now); err != nil {
			return domain.AuthResponse{}, err
		}
		return domain.AuthResponse{}, ErrInvalidOTP
	}

	if err := s.KV.Delete(ctx, signupKey(email)); err != nil {
		return domain.AuthResponse{}, fmt.Errorf("consume signup: %w", err)
	}

	in := RegisterInput{
		Email:     pending.Email,
		Phone:     pending.Phone,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
		Role:      pending.Role,
	}
	u := newUser(in, pending.PasswordHash, now.UTC())
	if err := insertUser(ctx, s.Store.Users(), u); err != nil {
		return domain.AuthResponse{}, err
	}

	resp, err := s.Tokens.GenerateAuthResponse(ctx, u)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	s.Metrics.ObserveRegistration("otp")
	publishBestEffort(ctx, s.Events, registeredEvent(u))
	return resp, nil
}

func (s *SignupService) issuer() string {
	if s.Issuer != "" {
		return s.Issuer
	}
	return "coach-auth"
}

// save writes pending with whatever lifetime it has left.
func (s *SignupService) save(ctx context.Context, p domain.PendingSignup, now time.Time) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	remaining := p.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return ErrSignupNotFound
	}
	if err := s.KV.Set(ctx, signupKey(p.Email), b, remaining); err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}
	return nil
}

func (s *SignupService) load(ctx context.Context, email string) (domain.PendingSignup, error) {
	b, err := s.KV.Get(ctx, signupKey(email))
	if errors.Is(err, kvx.ErrNotFound) {
		return domain.PendingSignup{}, ErrSignupNotFound
	}
	if err != nil {
		return domain.PendingSignup{}, fmt.Errorf("load pending signup: %w", err)
	}

	var p domain.PendingSignup
	if err := json.Unmarshal(b, &p); err != nil {
		return domain.PendingSignup{}, fmt.Errorf("decode pending signup: %w", err)
	}
	return p, nil
}
