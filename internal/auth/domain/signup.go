package domain

import "time"

// PendingSignup is a registration waiting for its emailed OTP. The password
// is already hashed; the raw password is never parked.
type PendingSignup struct {
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	OTPSecret    string    `json:"otpSecret"`
	Attempts     int       `json:"attempts"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
