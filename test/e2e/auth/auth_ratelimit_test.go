package auth_test

import (
	"net/http"
	"testing"

	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit runs against the default limits: five login attempts a
// minute per address and email.
func TestLoginRateLimit(t *testing.T) {
	c := setupAuthContainer(t, nil)
	client := authsdk.NewClient(c.BaseURL)

	for i := range 5 {
		_, err := client.Login(t.Context(), "nobody@example.com", "wrong-password")
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidCredentials)
		t.Logf("attempt %d rejected with 401", i+1)
	}

	_, err := client.Login(t.Context(), "nobody@example.com", "wrong-password")
	requireAPIError(t, err, http.StatusTooManyRequests, authsdk.MessageRateLimited)

	// Buckets are per email, so another account is unaffected.
	_, err = client.Login(t.Context(), "somebody@example.com", "wrong-password")
	requireAPIError(t, err, http.StatusUnauthorized, "")
	require.False(t, authsdk.IsStatus(err, http.StatusTooManyRequests))
}
