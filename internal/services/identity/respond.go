package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/auth"
	"github.com/openchatd/identity/internal/obs"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func respondOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func respondFail(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, Envelope{Success: false, Message: message, Error: detail})
}

// respondErr is the single place the failure taxonomy turns into statuses.
// Anything it does not recognize becomes a 500 with the detail withheld from
// the client and logged instead.
func respondErr(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		respondFail(w, http.StatusBadRequest, "Validation Error", vErr.Detail())
	case errors.Is(err, ErrDuplicateUser):
		respondFail(w, http.StatusConflict, "Duplicate user", ErrDuplicateUser.Error())
	case errors.Is(err, ErrInvalidCredentials):
		respondFail(w, http.StatusUnauthorized, "Invalid credentials", ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrTokenMissing):
		respondFail(w, http.StatusBadRequest, "Token missing", "no refresh token provided")
	case errors.Is(err, auth.ErrTokenExpired):
		respondFail(w, http.StatusUnauthorized, "Token expired", "refresh token expired")
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrTokenMalformed):
		respondFail(w, http.StatusUnauthorized, "Token invalid", "invalid refresh token")
	case errors.Is(err, ErrUserNotFound):
		respondFail(w, http.StatusNotFound, "User not found", ErrUserNotFound.Error())
	case errors.Is(err, ErrForbidden):
		respondFail(w, http.StatusForbidden, "Forbidden", ErrForbidden.Error())
	default:
		obs.WithTrace(r.Context(), log).Error("unhandled error", zap.Error(err))
		respondFail(w, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
	}
}
