package event

import "time"

type Type string

const (
	UserSignedUp           Type = "user.signed_up"
	PasswordChanged        Type = "password.changed"
	PasswordResetRequested Type = "password.reset_requested"
)

// Event is the JSON payload handed to the notification pipeline. Reset
// requests carry only the email; the consumer decides whether an account
// exists and what to send.
type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
