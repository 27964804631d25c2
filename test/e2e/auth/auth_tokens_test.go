package auth_test

import (
	"maps"
	"net/http"
	"testing"

	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRefresh(t *testing.T) {
	c := setupAuthContainer(t, relaxedLimits)
	client := authsdk.NewClient(c.BaseURL)
	ctx := t.Context()

	registered := registerUser(t, client, "Casey@Example.com")
	require.Equal(t, "casey@example.com", registered.User().Email)
	require.Equal(t, "client", registered.User().Role)

	session, err := client.Login(ctx, "casey@example.com", userPassword)
	require.NoError(t, err)

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, registered.User().ID, me.ID)

	t.Run("login supersedes the registration refresh token", func(t *testing.T) {
		_, err := client.Refresh(ctx, registered.Tokens().RefreshToken)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken)
	})

	t.Run("refresh rotates", func(t *testing.T) {
		old := session.Tokens().RefreshToken
		require.NoError(t, session.Refresh(ctx))
		require.NotEqual(t, old, session.Tokens().RefreshToken)

		_, err := client.Refresh(ctx, old)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := client.Refresh(ctx, session.Tokens().AccessToken)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(ctx, "casey@example.com", "not-the-password")
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidCredentials)
	})

	t.Run("logout revokes refresh", func(t *testing.T) {
		refresh := session.Tokens().RefreshToken
		require.NoError(t, session.Logout(ctx))

		_, err := client.Refresh(ctx, refresh)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken)
	})
}

func TestRegisterRestrictedAdminAndDuplicates(t *testing.T) {
	env := maps.Clone(relaxedLimits)
	env["AUTH_RESTRICT_ADMIN_SIGNUP"] = "true"
	c := setupAuthContainer(t, env)
	client := authsdk.NewClient(c.BaseURL)

	registerUser(t, client, "dup@example.com")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email: "DUP@example.com", Password: userPassword, FirstName: "D", LastName: "U", Phone: "+61499999999",
	})
	requireAPIError(t, err, http.StatusConflict, authsdk.MessageEmailTaken)

	_, err = client.Register(t.Context(), authsdk.RegisterRequest{
		Email: "boss@example.com", Password: userPassword, FirstName: "B", LastName: "O", Phone: "+61499999998", Role: "admin",
	})
	requireAPIError(t, err, http.StatusBadRequest, "")
}
