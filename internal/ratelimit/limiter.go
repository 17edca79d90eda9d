// Package ratelimit implements fixed-window request admission control.
// It is a heuristic against abusive clients, not a security boundary, and
// keeps no state across process restarts.
package ratelimit

import (
	"strings"
	"time"
)

// Store tracks one counter per key. Incr bumps the counter for the window
// containing now, starting a fresh window (count 1) when the stored one has
// elapsed. The returned resetAt is the end of the current window.
// Implementations must serialize concurrent calls for the same key.
type Store interface {
	Incr(key string, now time.Time, window time.Duration) (count int, resetAt time.Time)
}

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the wait up to whole seconds for the
// Retry-After header.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

type Limiter struct {
	store  Store
	window time.Duration
	limit  int
	now    func() time.Time
}

func New(store Store, window time.Duration, limit int) *Limiter {
	return &Limiter{
		store:  store,
		window: window,
		limit:  limit,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Tests only.
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// CheckAndConsume counts one request against key and reports whether it may
// proceed. Rejected requests still consume nothing beyond the counter bump.
func (l *Limiter) CheckAndConsume(key string) Decision {
	now := l.now()
	count, resetAt := l.store.Incr(key, now, l.window)
	if count <= l.limit {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, RetryAfter: resetAt.Sub(now)}
}

// Key builds the composite bucket key for a request.
func Key(clientID, method, route string) string {
	return strings.Join([]string{clientID, method, route}, "|")
}
