package auth_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// otpFromLogs scrapes the one-time code the log publisher writes at debug
// level, standing in for the mailbox a real deployment would deliver to.
func (c *authContainer) otpFromLogs(t *testing.T, email string) string {
	t.Helper()

	var code string
	require.Eventually(t, func() bool {
		logs, err := c.Logs(context.Background())
		if err != nil {
			return false
		}
		defer logs.Close()

		scanner := bufio.NewScanner(logs)
		for scanner.Scan() {
			var line struct {
				Msg   string `json:"msg"`
				Email string `json:"email"`
				Code  string `json:"code"`
			}
			if json.Unmarshal(scanner.Bytes(), &line) != nil {
				continue
			}
			if line.Msg == "signup otp issued" && line.Email == email {
				code = line.Code
			}
		}
		return code != ""
	}, 10*time.Second, 200*time.Millisecond, "no otp logged for %s", email)

	return code
}

func TestSignupOTP(t *testing.T) {
	c := setupAuthContainer(t, relaxedLimits)
	client := authsdk.NewClient(c.BaseURL)
	ctx := t.Context()

	req := authsdk.RegisterRequest{
		Email:     "jordan@example.com",
		Password:  userPassword,
		FirstName: "Jordan",
		LastName:  "Lee",
		Phone:     "+61433333333",
		Role:      "coach",
	}

	expiresAt, err := client.RequestSignupOTP(ctx, req)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	code := c.otpFromLogs(t, req.Email)
	require.Len(t, code, 6)

	t.Run("wrong code", func(t *testing.T) {
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := client.VerifySignupOTP(ctx, req.Email, wrong)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.MessageInvalidOTP)
	})

	t.Run("correct code creates the account", func(t *testing.T) {
		session, err := client.VerifySignupOTP(ctx, req.Email, code)
		require.NoError(t, err)
		require.Equal(t, "coach", session.User().Role)

		me, err := session.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, req.Email, me.Email)
	})

	t.Run("code is single use", func(t *testing.T) {
		_, err := client.VerifySignupOTP(ctx, req.Email, code)
		requireAPIError(t, err, http.StatusNotFound, authsdk.MessageSignupNotFound)
	})
}
