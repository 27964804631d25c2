package domain

import "time"

const (
	EventUserRegistered     = "auth.user_registered"
	EventSignupOTPRequested = "auth.signup_otp_requested"
	EventUserActivated      = "auth.user_activated"
	EventUserDeactivated    = "auth.user_deactivated"
)

// Event is an outbound notification. Data holds event specific fields.
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"userId,omitempty"`
	Email      string            `json:"email,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
