package auth

import "errors"

// Verification failure taxonomy. Expiry is distinguishable from tampering so
// clients can run their refresh flow instead of re-prompting for credentials.
var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token payload malformed")
)
