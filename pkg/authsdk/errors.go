package authsdk

import (
	"errors"
	"fmt"
	"net/http"
)

// Messages the service puts in ErrorResponse.Message for the failures
// clients usually branch on.
const (
	MessageInvalidCredentials  = "Invalid credentials"
	MessageAccountDeactivated  = "User account is deactivated"
	MessageInvalidRefreshToken = "Invalid refresh token"
	MessageRefreshTokenExpired = "Refresh token expired"
	MessageInvalidToken        = "Invalid token"
	MessageEmailTaken          = "Email already registered"
	MessagePhoneTaken          = "Phone number already registered"
	MessageUserNotFound        = "User not found"
	MessageSignupNotFound      = "No pending signup for this email"
	MessageInvalidOTP          = "Invalid verification code"
	MessageTooManyAttempts     = "Too many failed attempts, request a new code"
	MessageInsufficientRole    = "Insufficient role"
	MessageInternalServerError = "Internal server error"
	MessageRateLimited         = "Too many requests. Please try again later."
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// HasMessage reports whether err is an APIError carrying msg.
func HasMessage(err error, msg string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Message == msg
}

// ErrNoRefreshToken is returned by Session.Refresh when the session holds no
// refresh token.
var ErrNoRefreshToken = errors.New("authsdk: session has no refresh token")
