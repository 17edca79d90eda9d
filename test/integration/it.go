//go:build integration

package integration

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

/********** ENV CONFIG **********/

type Cfg struct {
	BaseURL        string
	HealthURL      string
	KafkaBootstrap string
	EventsTopic    string
}

func LoadCfg() Cfg {
	return Cfg{
		BaseURL:        getenv("IT_BASE", "http://127.0.0.1:8080"),
		HealthURL:      getenv("IT_HEALTH", "http://127.0.0.1:9091/healthz"),
		KafkaBootstrap: getenv("IT_BOOTSTRAP", "127.0.0.1:19092"),
		EventsTopic:    getenv("IT_EVENTS_TOPIC", "identity.auth-events"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func TCPReachable(addr string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = c.Close()
	return nil
}

func WaitHealthz(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			t.Logf("[it] healthz OK: %s", url)
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("[it] healthz failed: %s", url)
}

/********** HTTP **********/

// Envelope mirrors the service's uniform response body.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Timestamp time.Time       `json:"timestamp"`
}

func DoJSON(t *testing.T, method, url, bearer string, body any, want int) Envelope {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("[http] marshal: %v", err)
		}
		rd = strings.NewReader(string(b))
	}
	req, _ := http.NewRequest(method, url, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("[http] %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("[http] %s %s: got %d want %d, body=%s", method, url, resp.StatusCode, want, string(raw))
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("[http] %s %s: decode envelope: %v, body=%s", method, url, err, string(raw))
	}
	return env
}

// Session is the payload returned by signup and login.
type Session struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func SessionFrom(t *testing.T, env Envelope) Session {
	t.Helper()
	var s Session
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatalf("[it] decode session: %v, data=%s", err, string(env.Data))
	}
	if s.AccessToken == "" || s.RefreshToken == "" {
		t.Fatalf("[it] incomplete session: %s", string(env.Data))
	}
	return s
}

/********** KAFKA **********/

// AuthEvent mirrors the JSON events the service publishes.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ReadEventFor drains the events topic until a message matching the predicate
// shows up or the timeout elapses.
func ReadEventFor(t *testing.T, bootstrap, topic, group string, timeout time.Duration, match func(AuthEvent) bool) (AuthEvent, bool) {
	t.Helper()
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{bootstrap},
		GroupID:  group,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return AuthEvent{}, false
			}
			t.Fatalf("[kafka] read %s: %v", topic, err)
		}
		var ev AuthEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			t.Logf("[kafka] skip undecodable message: %v", err)
			continue
		}
		if match(ev) {
			return ev, true
		}
	}
}

/********** MISC **********/

// RandSuffix gives signups unique usernames/emails so reruns against the same
// database do not collide.
func RandSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
