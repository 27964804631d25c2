package service

import "fmt"

// RefreshReason is the internal cause of a rejected refresh. It is logged and
// counted but never sent to clients.
type RefreshReason string

const (
	ReasonInvalidSignature RefreshReason = "invalid_signature"
	ReasonExpired          RefreshReason = "expired"
	ReasonTypeMismatch     RefreshReason = "type_mismatch"
	ReasonUserNotFound     RefreshReason = "user_not_found"
	ReasonUserInactive     RefreshReason = "user_inactive"
	ReasonTokenMismatch    RefreshReason = "token_mismatch"
	ReasonStoredExpiry     RefreshReason = "stored_expiry"
	ReasonInternal         RefreshReason = "internal"
)

// RefreshError is returned by TokenService.RefreshTokens. It matches its
// public error (ErrInvalidRefreshToken or ErrRefreshTokenExpired) and the
// underlying cause with errors.Is.
type RefreshError struct {
	Reason RefreshReason
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("refresh rejected: %s", e.Reason)
	}
	return fmt.Sprintf("refresh rejected: %s: %v", e.Reason, e.Err)
}

// Public is the only error that may cross the API boundary.
func (e *RefreshError) Public() error {
	if e.Reason == ReasonStoredExpiry {
		return ErrRefreshTokenExpired
	}
	return ErrInvalidRefreshToken
}

func (e *RefreshError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Public()}
	}
	return []error{e.Public(), e.Err}
}

func rejectRefresh(reason RefreshReason, err error) *RefreshError {
	return &RefreshError{Reason: reason, Err: err}
}
