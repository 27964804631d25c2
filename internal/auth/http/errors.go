package http

import (
	"errors"
	"net/http"

	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/pkg/authsdk"
	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/slogx"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// Order matters: a RefreshError for an inactive user also matches
// ErrAccountDeactivated, and must still be reported as a refresh failure.
var errorTable = []errorMapping{
	{service.ErrRefreshTokenExpired, http.StatusUnauthorized, authsdk.MessageRefreshTokenExpired},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, authsdk.MessageInvalidRefreshToken},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, authsdk.MessageInvalidCredentials},
	{service.ErrAccountDeactivated, http.StatusUnauthorized, authsdk.MessageAccountDeactivated},
	{service.ErrInvalidToken, http.StatusUnauthorized, authsdk.MessageInvalidToken},
	{service.ErrInvalidOTP, http.StatusUnauthorized, authsdk.MessageInvalidOTP},
	{service.ErrEmailTaken, http.StatusConflict, authsdk.MessageEmailTaken},
	{service.ErrPhoneTaken, http.StatusConflict, authsdk.MessagePhoneTaken},
	{service.ErrUserNotFound, http.StatusNotFound, authsdk.MessageUserNotFound},
	{service.ErrSignupNotFound, http.StatusNotFound, authsdk.MessageSignupNotFound},
	{service.ErrTooManyAttempts, http.StatusTooManyRequests, authsdk.MessageTooManyAttempts},
}

// writeServiceError maps a service error onto a status and client message.
// Anything unrecognised is logged and reported as a 500 without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var re *service.RefreshError
	if errors.As(err, &re) {
		err = re.Public()
	}

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		httpx.WriteError(w, http.StatusBadRequest, ve.Error())
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			httpx.WriteError(w, m.status, m.message)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, authsdk.MessageInternalServerError)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteError(w, http.StatusBadRequest, msg)
}
