package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fieldErr(t *testing.T, err error, field string) string {
	t.Helper()
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	msg, ok := vErr.Fields[field]
	require.True(t, ok, "expected a message for field %q, got %v", field, vErr.Fields)
	return msg
}

func TestSignupValidation(t *testing.T) {
	valid := SignupInput{Username: "alice1", Email: "a@x.com", Password: "secret1"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"short username", SignupInput{Username: "al", Email: "a@x.com", Password: "secret1"}, "username"},
		{"long username", SignupInput{Username: strings.Repeat("a", 33), Email: "a@x.com", Password: "secret1"}, "username"},
		{"bad username chars", SignupInput{Username: "alice!", Email: "a@x.com", Password: "secret1"}, "username"},
		{"missing email", SignupInput{Username: "alice1", Password: "secret1"}, "email"},
		{"bad email", SignupInput{Username: "alice1", Email: "not-an-email", Password: "secret1"}, "email"},
		{"long email", SignupInput{Username: "alice1", Email: strings.Repeat("a", 126) + "@x.com", Password: "secret1"}, "email"},
		{"short password", SignupInput{Username: "alice1", Email: "a@x.com", Password: "abc"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fieldErr(t, tc.in.Validate(), tc.field)
		})
	}
}

func TestSignupValidationCollectsAllFields(t *testing.T) {
	in := SignupInput{Username: "x", Email: "nope", Password: "ab"}
	err := in.Validate()

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 3)
}

func TestSignupNormalizesInput(t *testing.T) {
	in := SignupInput{Username: " alice1 ", Email: "  A@X.Com ", Password: "secret1"}
	require.NoError(t, in.Validate())
	require.Equal(t, "alice1", in.Username)
	require.Equal(t, "a@x.com", in.Email)
}

func TestUsernameAllowsUnderscoreAndHyphen(t *testing.T) {
	in := SignupInput{Username: "al_ice-01", Email: "a@x.com", Password: "secret1"}
	require.NoError(t, in.Validate())
}

func TestLoginValidation(t *testing.T) {
	okIn := LoginInput{Email: "A@x.com", Password: "whatever"}
	require.NoError(t, okIn.Validate())
	require.Equal(t, "a@x.com", okIn.Email)

	fieldErr(t, (&LoginInput{Email: "a@x.com"}).Validate(), "password")
	fieldErr(t, (&LoginInput{Password: "x"}).Validate(), "email")
}

func TestChangePasswordValidation(t *testing.T) {
	require.NoError(t, (&ChangePasswordInput{OldPassword: "old", NewPassword: "secret2"}).Validate())

	fieldErr(t, (&ChangePasswordInput{NewPassword: "secret2"}).Validate(), "oldPassword")
	fieldErr(t, (&ChangePasswordInput{OldPassword: "old", NewPassword: "abcd"}).Validate(), "newPassword")
}

func TestForgetPasswordValidation(t *testing.T) {
	require.NoError(t, (&ForgetPasswordInput{Email: "a@x.com"}).Validate())
	fieldErr(t, (&ForgetPasswordInput{Email: "bogus"}).Validate(), "email")
}
