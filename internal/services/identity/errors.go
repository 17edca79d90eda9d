package identity

import (
	"errors"
	"sort"
	"strings"
)

// Orchestrator failure taxonomy. Token errors live in internal/auth; these
// cover credential and account failures. ErrInvalidCredentials is shared by
// the unknown-email and wrong-password paths so the response never reveals
// which one happened.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("email or username already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("insufficient privileges")
)

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// Detail renders the field messages without the prefix, for the envelope.
func (e *ValidationError) Detail() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
