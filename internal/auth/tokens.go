package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds embedded in the signed payload.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the signed token payload: the user id, the token kind and the
// registered iat/exp set. Nothing else is ever put into a token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
}

type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// TokenService signs and verifies access and refresh tokens. The two kinds
// are signed with distinct secrets so possession of one never allows forging
// the other. Verification is pure: no external state is consulted.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           now,
	}
}

func (s *TokenService) IssueAccess(userID string) (string, time.Time, error) {
	return s.issue(userID, KindAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssueRefresh(userID string) (string, time.Time, error) {
	return s.issue(userID, KindRefresh, s.refreshSecret, s.refreshTTL)
}

// VerifyAccess returns the user id carried by a valid access token.
func (s *TokenService) VerifyAccess(token string) (string, error) {
	return s.verify(token, KindAccess, s.accessSecret)
}

// VerifyRefresh returns the user id carried by a valid refresh token.
func (s *TokenService) VerifyRefresh(token string) (string, error) {
	return s.verify(token, KindRefresh, s.refreshSecret)
}

// RotateAccess verifies a refresh token and issues a brand-new access token
// for the same user. The refresh token itself is not rotated; the caller
// keeps using it until natural expiry.
func (s *TokenService) RotateAccess(refreshToken string) (string, time.Time, error) {
	userID, err := s.VerifyRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueAccess(userID)
}

func (s *TokenService) issue(userID, kind string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Kind:   kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

func (s *TokenService) verify(token, kind string, secret []byte) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	default:
		return "", ErrTokenInvalid
	}
	if claims.UserID == "" {
		return "", ErrTokenMalformed
	}
	if claims.Kind != kind {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
