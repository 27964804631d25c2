package service_test

import (
	"context"
	"testing"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active client and signs it in", func(t *testing.T) {
		h := newHarness(t)
		in := registerInput("  Jamie@Example.COM ", "+61400000001")

		resp, err := h.auth.Register(ctx, in)
		require.NoError(t, err)
		require.Equal(t, "jamie@example.com", resp.User.Email)
		require.Equal(t, domain.RoleClient, resp.User.Role)
		require.True(t, resp.User.IsActive)
		require.NotEmpty(t, resp.AccessToken)
		require.NotEmpty(t, resp.RefreshToken)

		e := h.events.last(t, domain.EventUserRegistered)
		require.Equal(t, resp.User.ID, e.UserID)
		require.Equal(t, "client", e.Data["role"])
	})

	t.Run("coach role is allowed", func(t *testing.T) {
		h := newHarness(t)
		in := registerInput("coach@example.com", "+61400000002")
		in.Role = domain.RoleCoach

		resp, err := h.auth.Register(ctx, in)
		require.NoError(t, err)
		require.Equal(t, domain.RoleCoach, resp.User.Role)
	})

	t.Run("admin role is allowed by default", func(t *testing.T) {
		h := newHarness(t)
		in := registerInput("root@example.com", "+61400000003")
		in.Role = domain.RoleAdmin

		resp, err := h.auth.Register(ctx, in)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, resp.User.Role)
	})

	t.Run("admin role is rejected when restricted", func(t *testing.T) {
		h := newHarness(t)
		h.auth.RestrictAdmin = true
		in := registerInput("root@example.com", "+61400000003")
		in.Role = domain.RoleAdmin

		_, err := h.auth.Register(ctx, in)
		require.ErrorIs(t, err, service.ErrInvalidInput)

		in.Role = domain.RoleCoach
		_, err = h.auth.Register(ctx, in)
		require.NoError(t, err)
	})

	t.Run("phone formatting is normalised", func(t *testing.T) {
		h := newHarness(t)
		resp, err := h.auth.Register(ctx, registerInput("pat@example.com", " +61 (400) 000-004 "))
		require.NoError(t, err)
		require.Equal(t, "+61400000004", resp.User.Phone)

		_, err = h.auth.Register(ctx, registerInput("kim@example.com", "+61-400-000-004"))
		require.ErrorIs(t, err, service.ErrPhoneTaken)
	})

	t.Run("duplicate email and phone conflict", func(t *testing.T) {
		h := newHarness(t)
		h.register(t, "jamie@example.com", "+61400000001")

		_, err := h.auth.Register(ctx, registerInput("JAMIE@example.com", "+61400000009"))
		require.ErrorIs(t, err, service.ErrEmailTaken)
		require.ErrorIs(t, err, service.ErrConflict)

		_, err = h.auth.Register(ctx, registerInput("other@example.com", "+61400000001"))
		require.ErrorIs(t, err, service.ErrPhoneTaken)
		require.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("validation", func(t *testing.T) {
		h := newHarness(t)
		cases := map[string]func(in *service.RegisterInput){
			"email":       func(in *service.RegisterInput) { in.Email = "not-an-email" },
			"phone":       func(in *service.RegisterInput) { in.Phone = "12ab" },
			"short phone": func(in *service.RegisterInput) { in.Phone = "555-01" },
			"inner plus":  func(in *service.RegisterInput) { in.Phone = "555+0001" },
			"password":    func(in *service.RegisterInput) { in.Password = "" },
			"first name":  func(in *service.RegisterInput) { in.FirstName = "  " },
			"last name":   func(in *service.RegisterInput) { in.LastName = "" },
			"role":        func(in *service.RegisterInput) { in.Role = "owner" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				in := registerInput("jamie@example.com", "+61400000001")
				mutate(&in)
				_, err := h.auth.Register(ctx, in)

				var ve *service.ValidationError
				require.ErrorAs(t, err, &ve)
				require.ErrorIs(t, err, service.ErrInvalidInput)
			})
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	reg := h.register(t, "jamie@example.com", "+61400000001")

	t.Run("success", func(t *testing.T) {
		resp, err := h.auth.Login(ctx, " JAMIE@example.com", "hunter22")
		require.NoError(t, err)
		require.Equal(t, reg.User.ID, resp.User.ID)

		_, err = h.tokens.ValidateAccessToken(ctx, resp.AccessToken)
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.auth.Login(ctx, "jamie@example.com", "wrong-password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		_, err := h.auth.Login(ctx, "nobody@example.com", "hunter22")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("deactivated is only revealed with the right password", func(t *testing.T) {
		_, err := h.users.SetActive(ctx, reg.User.ID, false)
		require.NoError(t, err)

		_, err = h.auth.Login(ctx, "jamie@example.com", "wrong-password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)

		_, err = h.auth.Login(ctx, "jamie@example.com", "hunter22")
		require.ErrorIs(t, err, service.ErrAccountDeactivated)
	})
}

// The register/login/deactivate walk-through with minimal inputs: a two
// character password and a dashed local number are both accepted.
func TestRegisterLoginDeactivateScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	reg, err := h.auth.Register(ctx, service.RegisterInput{
		Email:     "a@x.com",
		Password:  "p1",
		FirstName: "A",
		LastName:  "B",
		Phone:     "555-0001",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleClient, reg.User.Role)

	resp, err := h.auth.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, resp.User.ID)

	p, err := h.tokens.ValidateAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, p.ID)

	_, err = h.auth.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = h.users.SetActive(ctx, reg.User.ID, false)
	require.NoError(t, err)

	_, err = h.auth.Login(ctx, "a@x.com", "p1")
	require.ErrorIs(t, err, service.ErrAccountDeactivated)
}
