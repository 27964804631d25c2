package auth_test

import (
	"net/http"
	"testing"

	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestAdminDeactivation(t *testing.T) {
	c := setupAuthContainer(t, relaxedLimits)
	c.createAdmin(t)

	client := authsdk.NewClient(c.BaseURL)
	ctx := t.Context()

	admin, err := client.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", admin.User().Role)

	user := registerUser(t, client, "riley@example.com")
	userID := user.User().ID

	t.Run("clients cannot use admin endpoints", func(t *testing.T) {
		_, err := user.SetUserActive(ctx, userID, false)
		requireAPIError(t, err, http.StatusForbidden, authsdk.MessageInsufficientRole)
	})

	t.Run("deactivation locks the account out", func(t *testing.T) {
		updated, err := admin.SetUserActive(ctx, userID, false)
		require.NoError(t, err)
		require.False(t, updated.IsActive)

		_, err = client.Refresh(ctx, user.Tokens().RefreshToken)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken)

		_, err = client.Login(ctx, "riley@example.com", userPassword)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageAccountDeactivated)
	})

	t.Run("reactivation allows login again", func(t *testing.T) {
		updated, err := admin.SetUserActive(ctx, userID, true)
		require.NoError(t, err)
		require.True(t, updated.IsActive)

		_, err = client.Login(ctx, "riley@example.com", userPassword)
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := admin.SetUserActive(ctx, "01JAAAAAAAAAAAAAAAAAAAAAAA", false)
		requireAPIError(t, err, http.StatusNotFound, authsdk.MessageUserNotFound)
	})
}
