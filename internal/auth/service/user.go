package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/idx"
)

// RegisterInput is the profile a new account is created from.
type RegisterInput struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
	Role      domain.Role // empty means domain.DefaultRole
}

// normalize trims fields, lower-cases the email and validates everything
// but role policy.
func (in RegisterInput) normalize() (RegisterInput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = normalizePhone(in.Phone)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return in, invalid("email", "must be a valid email address")
	}
	if !validPhone(in.Phone) {
		return in, invalid("phone", "must hold 7 to 15 digits, optionally prefixed with +")
	}
	if in.Password == "" {
		return in, invalid("password", "is required")
	}
	if in.FirstName == "" {
		return in, invalid("firstName", "is required")
	}
	if in.LastName == "" {
		return in, invalid("lastName", "is required")
	}

	role, err := domain.ParseRole(string(in.Role))
	if err != nil {
		return in, invalid("role", "must be one of client, coach, admin")
	}
	in.Role = role
	return in, nil
}

// normalizePhone drops the formatting people type into phone numbers
// (spaces, dashes, dots, parentheses) and keeps a leading +. Anything else is
// left in place for validPhone to reject.
func normalizePhone(p string) string {
	p = strings.TrimSpace(p)
	var b strings.Builder
	for i, r := range p {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validPhone(p string) bool {
	digits := strings.TrimPrefix(p, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// selfServiceRole enforces the optional ban on self-registered admins.
func selfServiceRole(role domain.Role, restrictAdmin bool) error {
	if restrictAdmin && role == domain.RoleAdmin {
		return invalid("role", "admin accounts cannot be self-registered")
	}
	return nil
}

// ensureAvailable reports ErrEmailTaken or ErrPhoneTaken before any hashing
// work is spent. The unique indexes remain the real guard.
func ensureAvailable(ctx context.Context, users store.Users, email, phone string) error {
	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := users.GetUserByPhone(ctx, phone); err == nil {
		return ErrPhoneTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func newUser(in RegisterInput, passwordHash string, now time.Time) domain.User {
	return domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        in.Email,
		Phone:        in.Phone,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: passwordHash,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// insertUser maps unique violations from a racing registration onto the
// same conflicts ensureAvailable reports.
func insertUser(ctx context.Context, users store.Users, u domain.User) error {
	err := users.CreateUser(ctx, u)
	var uv *store.UniqueViolation
	if errors.As(err, &uv) {
		if uv.Field == "phone" {
			return ErrPhoneTaken
		}
		return ErrEmailTaken
	}
	return err
}

// UserService holds account administration used by the admin API and CLI.
type UserService struct {
	Store  store.Store
	Events EventPublisher
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// CreateUser creates an account with any role, including admin. It is the
// operator path; public registration goes through AuthService.
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput) (domain.User, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.User{}, err
	}
	if err := ensureAvailable(ctx, s.Store.Users(), in.Email, in.Phone); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := newUser(in, hash, time.Now().UTC())
	if err := insertUser(ctx, s.Store.Users(), u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// SetActive toggles an account. Deactivation also revokes the stored refresh
// token so the account can't mint new access tokens.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (domain.User, error) {
	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetActive(ctx, id, active); err != nil {
			return err
		}
		if !active {
			if err := tx.Users().ClearRefreshToken(ctx, id); err != nil {
				return err
			}
		}
		u, err := tx.Users().GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	typ := domain.EventUserActivated
	if !active {
		typ = domain.EventUserDeactivated
	}
	publishBestEffort(ctx, s.Events, domain.Event{
		Type:       typ,
		UserID:     updated.ID,
		Email:      updated.Email,
		OccurredAt: time.Now().UTC(),
	})
	return updated, nil
}
