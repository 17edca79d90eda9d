package user

import (
	"time"
)

// Role values stored on a user record.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the persistent account record. Password always holds a bcrypt
// hash once the record leaves the signup path; the plaintext is never stored.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	IsOnline  bool       `json:"isOnline"`
	LastSeen  *time.Time `json:"lastSeen"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
