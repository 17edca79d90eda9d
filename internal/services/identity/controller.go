package identity

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/obs"
)

// Controller owns the HTTP surface of the auth core. Routing stays on the
// standard mux; each handler decodes into a typed input, calls the usecase
// and writes the envelope.
type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, uc: uc}
}

// Register wires the endpoints. Public endpoints pass through the rate
// limiter; protected ones run behind the verification gate.
func (c *Controller) Register(mux *http.ServeMux, gate *Gate, rl *RateLimit) {
	mux.Handle("POST /auth/signup", rl.Wrap(http.HandlerFunc(c.handleSignup)))
	mux.Handle("POST /auth/login", rl.Wrap(http.HandlerFunc(c.handleLogin)))
	mux.Handle("POST /auth/refresh", rl.Wrap(http.HandlerFunc(c.handleRefresh)))
	mux.Handle("POST /auth/forget-password", rl.Wrap(http.HandlerFunc(c.handleForgetPassword)))
	mux.Handle("POST /auth/logout", gate.Require(http.HandlerFunc(c.handleLogout)))
	mux.Handle("POST /auth/change-password", gate.Require(http.HandlerFunc(c.handleChangePassword)))
	mux.Handle("GET /auth/me", gate.Require(http.HandlerFunc(c.handleMe)))
}

func (c *Controller) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in SignupInput
	if !c.decode(w, r, &in) {
		return
	}
	sess, err := c.uc.Signup(r.Context(), in)
	countOutcome("signup", err)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	obs.WithTrace(r.Context(), c.log).Info("user signed up", zap.String("user_id", sess.User.ID))
	respondOK(w, http.StatusCreated, "User created", sess)
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if !c.decode(w, r, &in) {
		return
	}
	sess, err := c.uc.Login(r.Context(), in)
	countOutcome("login", err)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	obs.WithTrace(r.Context(), c.log).Info("user logged in", zap.String("user_id", sess.User.ID))
	respondOK(w, http.StatusOK, "Login successful", sess)
}

func (c *Controller) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Refresh token travels in the body, with a header fallback for clients
	// that cannot send one.
	var in RefreshInput
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&in)
	}
	raw := in.RefreshToken
	if raw == "" {
		raw = r.Header.Get("X-Refresh-Token")
	}

	access, expiresAt, err := c.uc.Refresh(r.Context(), raw)
	countOutcome("refresh", err)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	respondOK(w, http.StatusOK, "Token refreshed", map[string]any{
		"accessToken": access,
		"expiresAt":   expiresAt,
	})
}

func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	c.uc.Logout(r.Context(), id.UserID)
	countOutcome("logout", nil)
	respondOK(w, http.StatusOK, "Logged out", nil)
}

func (c *Controller) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in ChangePasswordInput
	if !c.decode(w, r, &in) {
		return
	}
	id, _ := IdentityFromCtx(r.Context())
	err := c.uc.ChangePassword(r.Context(), id.UserID, in)
	countOutcome("change_password", err)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	respondOK(w, http.StatusOK, "Password changed", nil)
}

func (c *Controller) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var in ForgetPasswordInput
	if !c.decode(w, r, &in) {
		return
	}
	err := c.uc.ForgetPassword(r.Context(), in)
	countOutcome("forget_password", err)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	// Same message whether or not the account exists.
	respondOK(w, http.StatusOK, "If the account exists, a reset link has been sent", nil)
}

func (c *Controller) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	u, err := c.uc.Me(r.Context(), id.UserID)
	if err != nil {
		respondErr(w, r, c.log, err)
		return
	}
	respondOK(w, http.StatusOK, "OK", map[string]any{"user": u})
}

func (c *Controller) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondFail(w, http.StatusBadRequest, "Validation Error", "malformed request body")
		return false
	}
	return true
}
