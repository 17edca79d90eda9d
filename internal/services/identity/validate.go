package identity

import (
	"regexp"
	"strings"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 32
	emailMaxLen    = 128
	passwordMinLen = 6
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ForgetPasswordInput struct {
	Email string `json:"email"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate normalizes the input in place and returns a *ValidationError
// listing every violated field, or nil.
func (in *SignupInput) Validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	fields := map[string]string{}
	if len(in.Username) < usernameMinLen || len(in.Username) > usernameMaxLen {
		fields["username"] = "must be between 3 and 32 characters"
	} else if !usernameRe.MatchString(in.Username) {
		fields["username"] = "may only contain letters, digits, underscore and hyphen"
	}
	checkEmail(fields, in.Email)
	if len(in.Password) < passwordMinLen {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in *LoginInput) Validate() error {
	in.Email = normalizeEmail(in.Email)

	fields := map[string]string{}
	checkEmail(fields, in.Email)
	if in.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in *ChangePasswordInput) Validate() error {
	fields := map[string]string{}
	if in.OldPassword == "" {
		fields["oldPassword"] = "is required"
	}
	if len(in.NewPassword) < passwordMinLen {
		fields["newPassword"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in *ForgetPasswordInput) Validate() error {
	in.Email = normalizeEmail(in.Email)

	fields := map[string]string{}
	checkEmail(fields, in.Email)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkEmail(fields map[string]string, email string) {
	switch {
	case email == "":
		fields["email"] = "is required"
	case len(email) > emailMaxLen:
		fields["email"] = "must be at most 128 characters"
	case !emailRe.MatchString(email):
		fields["email"] = "must be a valid email address"
	}
}
