package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid_input")

	ErrConflict   = errors.New("conflict")
	ErrEmailTaken = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrPhoneTaken = fmt.Errorf("%w: phone already in use", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDeactivated = errors.New("account_deactivated")

	ErrInvalidToken        = errors.New("invalid_token")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrRefreshTokenExpired = errors.New("refresh_token_expired")

	ErrUserNotFound = errors.New("user_not_found")

	ErrSignupNotFound  = errors.New("signup_not_found")
	ErrInvalidOTP      = errors.New("invalid_otp")
	ErrTooManyAttempts = errors.New("too_many_attempts")
)

// ValidationError names the offending input field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
