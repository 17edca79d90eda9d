package identity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/auth"
	"github.com/openchatd/identity/internal/domain/user"
	"github.com/openchatd/identity/internal/ratelimit"
)

type ctxKey int

const identityKey ctxKey = 1

// Identity is the request-scoped authenticated identity. It is derived from
// a verified access token, attached once by the gate and never mutated.
type Identity struct {
	UserID string
}

func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Gate authenticates inbound requests from the Authorization header before
// the handler runs.
type Gate struct {
	log    *zap.Logger
	tokens *auth.TokenService
	users  user.Store
}

func NewGate(log *zap.Logger, tokens *auth.TokenService, users user.Store) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{log: log, tokens: tokens, users: users}
}

// Require verifies the bearer access token and threads the identity through
// the request context. Expiry gets a distinct message so clients know to run
// their refresh flow instead of re-prompting for credentials.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			mGateRejected.WithLabelValues("missing").Inc()
			respondFail(w, http.StatusUnauthorized, "Unauthorized", "no token provided")
			return
		}

		userID, err := g.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				mGateRejected.WithLabelValues("expired").Inc()
				respondFail(w, http.StatusUnauthorized, "Token expired", "access token expired")
				return
			}
			mGateRejected.WithLabelValues("invalid").Inc()
			respondFail(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), Identity{UserID: userID})))
	})
}

// RequireRole runs after Require and checks the stored role. A vanished user
// record and an insufficient role both come back as Forbidden so the
// response leaks nothing about account state.
func (g *Gate) RequireRole(role string, next http.Handler) http.Handler {
	return g.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromCtx(r.Context())
		u, err := g.users.GetByID(r.Context(), id.UserID)
		if err != nil || u.Role != role {
			mGateRejected.WithLabelValues("forbidden").Inc()
			respondFail(w, http.StatusForbidden, "Forbidden", ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RateLimit guards the public endpoints with the fixed-window limiter,
// keyed by client address, method and route. trustProxy switches the client
// address to the first X-Forwarded-For hop; only safe behind a reverse proxy
// that overwrites the header, since direct clients could otherwise rotate it
// to dodge their bucket.
type RateLimit struct {
	limiter    *ratelimit.Limiter
	trustProxy bool
}

func NewRateLimit(limiter *ratelimit.Limiter, trustProxy bool) *RateLimit {
	return &RateLimit{limiter: limiter, trustProxy: trustProxy}
}

func (m *RateLimit) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ratelimit.Key(clientAddr(r, m.trustProxy), r.Method, r.URL.Path)
		d := m.limiter.CheckAndConsume(key)
		if !d.Allowed {
			mRateLimited.WithLabelValues(r.URL.Path).Inc()
			retry := d.RetryAfterSeconds()
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeJSON(w, http.StatusTooManyRequests, Envelope{
				Success: false,
				Message: "Too many requests",
				Data:    map[string]int{"retryAfterSeconds": retry},
				Error:   "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("bearer "):])
	return token, token != ""
}

// clientAddr identifies the caller for rate limiting: the first
// X-Forwarded-For hop when the proxy header is trusted, else the
// connection's host part.
func clientAddr(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
