package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openchatd/identity/internal/domain/user"
)

var _ user.Store = (*UserStore)(nil)

const uniqueViolation = "23505"

// UserStore implements the credential store contract over postgres.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore { return &UserStore{db: db} }

const (
	userColumns = `id, username, email, password_hash, role, avatar_url, is_online, last_seen, created_at, updated_at`

	qUserInsert = `
INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	qUserByEmail = `
SELECT ` + userColumns + `
FROM users
WHERE LOWER(email) = LOWER($1);`

	qUserByUsername = `
SELECT ` + userColumns + `
FROM users
WHERE LOWER(username) = LOWER($1);`

	qUserSetPassword = `
UPDATE users
SET password_hash = $2,
    updated_at    = NOW()
WHERE id = $1;`

	qUserSetPresence = `
UPDATE users
SET is_online  = $2,
    last_seen  = $3,
    updated_at = NOW()
WHERE id = $1;`
)

func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Pool.Exec(ctx, qUserInsert,
		u.ID, u.Username, u.Email, u.Password, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrDuplicate
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.getOne(ctx, qUserByID, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, qUserByEmail, email)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.getOne(ctx, qUserByUsername, username)
}

func (s *UserStore) UpdatePassword(ctx context.Context, id, hash string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Pool.Exec(ctx, qUserSetPassword, id, hash)
	if err != nil {
		return fmt.Errorf("password update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdatePresence(ctx context.Context, id string, isOnline bool, lastSeen *time.Time) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Pool.Exec(ctx, qUserSetPresence, id, isOnline, lastSeen)
	if err != nil {
		return fmt.Errorf("presence update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (s *UserStore) getOne(ctx context.Context, query, arg string) (*user.User, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var (
		u      user.User
		avatar *string
	)
	err := s.db.Pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.Role,
		&avatar, &u.IsOnline, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if avatar != nil {
		u.AvatarURL = *avatar
	}
	return &u, nil
}
