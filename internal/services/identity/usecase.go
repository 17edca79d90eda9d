package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/auth"
	"github.com/openchatd/identity/internal/domain/event"
	"github.com/openchatd/identity/internal/domain/user"
)

// Session is what a successful signup or login hands back to the client.
type Session struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Usecase orchestrates the auth flows over the store, the hasher and the
// token service. It holds no per-request state; everything request-scoped
// travels through arguments and context.
type Usecase struct {
	log    *zap.Logger
	users  user.Store
	hasher auth.Hasher
	tokens *auth.TokenService
	events event.Publisher
	now    func() time.Time
}

func NewUsecase(log *zap.Logger, users user.Store, hasher auth.Hasher, tokens *auth.TokenService, events event.Publisher) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if events == nil {
		events = event.Nop{}
	}
	return &Usecase{
		log:    log,
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Signup validates the input, rejects duplicate email or username, then
// hashes the password and performs the single store write. Tokens are issued
// only after the write succeeds, so an aborted request leaves no partial
// session behind.
func (uc *Usecase) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := uc.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	u := &user.User{
		ID:        uuid.NewString(),
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		Role:      user.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.users.Create(ctx, u); err != nil {
		// The store's unique constraints close the check-then-create race.
		if errors.Is(err, user.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := uc.issueSession(u)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, event.Event{Type: event.UserSignedUp, UserID: u.ID, Email: u.Email})
	return sess, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password take the same exit so callers cannot enumerate accounts.
func (uc *Usecase) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if !uc.hasher.Verify(in.Password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	now := uc.now()
	u.IsOnline = true
	u.LastSeen = &now
	u.UpdatedAt = now
	if err := uc.users.UpdatePresence(ctx, u.ID, true, &now); err != nil {
		// Presence is advisory; a failed flag write must not fail the login.
		uc.log.Warn("presence update on login", zap.Error(err))
	}

	return uc.issueSession(u)
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is not rotated.
func (uc *Usecase) Refresh(ctx context.Context, rawToken string) (string, time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return "", time.Time{}, auth.ErrTokenMissing
	}
	return uc.tokens.RotateAccess(rawToken)
}

// Logout records the user as offline. Tokens stay valid until natural
// expiry; discarding them is the client's job.
func (uc *Usecase) Logout(ctx context.Context, userID string) {
	now := uc.now()
	if err := uc.users.UpdatePresence(ctx, userID, false, &now); err != nil {
		uc.log.Warn("presence update on logout", zap.Error(err))
	}
}

// ChangePassword re-verifies the old password before replacing the hash.
// Existing tokens remain valid until they expire.
func (uc *Usecase) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !uc.hasher.Verify(in.OldPassword, u.Password) {
		return ErrInvalidCredentials
	}

	hash, err := uc.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("persist password: %w", err)
	}

	uc.publish(ctx, event.Event{Type: event.PasswordChanged, UserID: u.ID, Email: u.Email})
	return nil
}

// ForgetPassword validates the email shape and hands the request to the
// notification channel. It succeeds whether or not the account exists; the
// response never reveals which.
func (uc *Usecase) ForgetPassword(ctx context.Context, in ForgetPasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	uc.publish(ctx, event.Event{Type: event.PasswordResetRequested, Email: in.Email})
	return nil
}

// Me loads the authenticated user's record.
func (uc *Usecase) Me(ctx context.Context, userID string) (*user.User, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (uc *Usecase) issueSession(u *user.User) (*Session, error) {
	access, _, err := uc.tokens.IssueAccess(u.ID)
	if err != nil {
		return nil, err
	}
	refresh, _, err := uc.tokens.IssueRefresh(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func (uc *Usecase) publish(ctx context.Context, e event.Event) {
	e.OccurredAt = uc.now()
	if err := uc.events.Publish(ctx, e); err != nil {
		uc.log.Warn("publish auth event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
