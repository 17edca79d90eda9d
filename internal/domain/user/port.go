package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by lookups when no record matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned by Create when email or username is taken.
	ErrDuplicate = errors.New("user already exists")
)

// Store is the minimal contract this core expects from the persistent user
// store. Implementations live outside the auth core (see repository/postgres).
// Writes are targeted: each method touches only the fields its operation
// mutates, so concurrent operations on the same record cannot clobber each
// other's columns.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdatePresence(ctx context.Context, id string, isOnline bool, lastSeen *time.Time) error
}
