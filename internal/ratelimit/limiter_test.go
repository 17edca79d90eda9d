package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 20).WithNow(func() time.Time { return now })

	key := Key("10.0.0.1", "POST", "/auth/login")
	for i := 0; i < 20; i++ {
		d := l.CheckAndConsume(key)
		require.True(t, d.Allowed, "request %d", i+1)
	}

	d := l.CheckAndConsume(key)
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfterSeconds(), 0)
	require.LessOrEqual(t, d.RetryAfterSeconds(), 60)
}

func TestWindowReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 2).WithNow(func() time.Time { return now })

	key := Key("10.0.0.1", "POST", "/auth/signup")
	require.True(t, l.CheckAndConsume(key).Allowed)
	require.True(t, l.CheckAndConsume(key).Allowed)
	require.False(t, l.CheckAndConsume(key).Allowed)

	now = now.Add(61 * time.Second)
	require.True(t, l.CheckAndConsume(key).Allowed, "first request of the new window")
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(NewMemoryStore(), time.Minute, 1).WithNow(func() time.Time { return now })

	require.True(t, l.CheckAndConsume(Key("a", "POST", "/auth/login")).Allowed)
	require.False(t, l.CheckAndConsume(Key("a", "POST", "/auth/login")).Allowed)
	require.True(t, l.CheckAndConsume(Key("b", "POST", "/auth/login")).Allowed)
	require.True(t, l.CheckAndConsume(Key("a", "POST", "/auth/signup")).Allowed)
}

func TestConcurrentSameKey(t *testing.T) {
	l := New(NewMemoryStore(), time.Minute, 20)
	key := Key("10.0.0.1", "POST", "/auth/login")

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.CheckAndConsume(key).Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 20, allowed, "no lost updates under concurrency")
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	require.Equal(t, 0, Decision{}.RetryAfterSeconds())
	require.Equal(t, 1, Decision{RetryAfter: time.Millisecond}.RetryAfterSeconds())
	require.Equal(t, 1, Decision{RetryAfter: time.Second}.RetryAfterSeconds())
	require.Equal(t, 2, Decision{RetryAfter: time.Second + time.Millisecond}.RetryAfterSeconds())
}

func TestSweepEvictsExpiredBuckets(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Incr("stale", now, time.Minute)
	s.Incr("fresh", now, time.Hour)
	require.Equal(t, 2, s.Len())

	s.sweep(now.Add(2 * time.Minute))
	require.Equal(t, 1, s.Len())
}
