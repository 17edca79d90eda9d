//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestIdentityFlow(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.HealthURL, 60*time.Second)

	suffix := RandSuffix()
	username := "ituser_" + suffix
	email := "it-" + suffix + "@example.com"
	password := "it-pass-" + suffix

	signup := map[string]string{"username": username, "email": email, "password": password}

	// Signup.
	env := DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/signup", "", signup, http.StatusCreated)
	sess := SessionFrom(t, env)
	if sess.User.Email != email {
		t.Fatalf("[it] signup email mismatch: got %q want %q", sess.User.Email, email)
	}
	if sess.User.Role != "user" {
		t.Fatalf("[it] unexpected default role: %q", sess.User.Role)
	}

	// Duplicate signup conflicts.
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/signup", "", signup, http.StatusConflict)

	// Wrong password.
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/login", "",
		map[string]string{"email": email, "password": "definitely-wrong"}, http.StatusUnauthorized)

	// Correct login.
	env = DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/login", "",
		map[string]string{"email": email, "password": password}, http.StatusOK)
	sess = SessionFrom(t, env)

	// Refresh issues a usable access token.
	env = DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/refresh", "",
		map[string]string{"refreshToken": sess.RefreshToken}, http.StatusOK)
	var refreshed struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &refreshed); err != nil || refreshed.AccessToken == "" {
		t.Fatalf("[it] refresh payload: err=%v data=%s", err, string(env.Data))
	}

	// Gated endpoint with the refreshed token.
	env = DoJSON(t, http.MethodGet, cfg.BaseURL+"/auth/me", refreshed.AccessToken, nil, http.StatusOK)
	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil || me.User.Username != username {
		t.Fatalf("[it] me payload: err=%v data=%s", err, string(env.Data))
	}

	// Gated endpoint without a token.
	DoJSON(t, http.MethodGet, cfg.BaseURL+"/auth/me", "", nil, http.StatusUnauthorized)

	// Change password, then the old one stops working.
	newPassword := password + "-rotated"
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/change-password", sess.AccessToken,
		map[string]string{"oldPassword": password, "newPassword": newPassword}, http.StatusOK)
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/login", "",
		map[string]string{"email": email, "password": password}, http.StatusUnauthorized)
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/login", "",
		map[string]string{"email": email, "password": newPassword}, http.StatusOK)

	// Forget-password answers the same for known and unknown accounts.
	known := DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/forget-password", "",
		map[string]string{"email": email}, http.StatusOK)
	unknown := DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/forget-password", "",
		map[string]string{"email": "nobody-" + suffix + "@example.com"}, http.StatusOK)
	if known.Message != unknown.Message {
		t.Fatalf("[it] forget-password leaks existence: %q vs %q", known.Message, unknown.Message)
	}

	// Logout with the fresh session.
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/logout", sess.AccessToken, nil, http.StatusOK)
}

func TestIdentityEvents(t *testing.T) {
	cfg := LoadCfg()
	if err := TCPReachable(cfg.KafkaBootstrap, 2*time.Second); err != nil {
		t.Skipf("[kafka] broker unreachable at %s: %v", cfg.KafkaBootstrap, err)
	}
	WaitHealthz(t, cfg.HealthURL, 60*time.Second)

	suffix := RandSuffix()
	email := "it-ev-" + suffix + "@example.com"
	DoJSON(t, http.MethodPost, cfg.BaseURL+"/auth/signup", "",
		map[string]string{"username": "itev_" + suffix, "email": email, "password": "it-pass-" + suffix},
		http.StatusCreated)

	ev, ok := ReadEventFor(t, cfg.KafkaBootstrap, cfg.EventsTopic, "it-identity-"+suffix, 30*time.Second,
		func(ev AuthEvent) bool { return ev.Type == "user.signed_up" && ev.Email == email })
	if !ok {
		t.Fatalf("[kafka] no user.signed_up event for %s", email)
	}
	if ev.UserID == "" {
		t.Fatalf("[kafka] signed_up event missing userId: %+v", ev)
	}
}

func TestIdentityRateLimit(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.HealthURL, 60*time.Second)

	// Hammer login with bad credentials until the window fills. The default
	// window allows 20 requests, so 25 attempts must trip it.
	body := map[string]string{"email": "ratelimit@example.com", "password": "whatever1"}
	raw, _ := json.Marshal(body)
	tripped := false
	for i := 0; i < 25; i++ {
		resp, err := http.Post(cfg.BaseURL+"/auth/login", "application/json", bytes.NewReader(raw))
		if err != nil {
			t.Fatalf("[http] login: %v", err)
		}
		code := resp.StatusCode
		if code == http.StatusTooManyRequests {
			if resp.Header.Get("Retry-After") == "" {
				t.Fatalf("[it] 429 without Retry-After")
			}
			tripped = true
		}
		resp.Body.Close()
		if tripped {
			break
		}
		if code != http.StatusUnauthorized {
			t.Fatalf("[http] login attempt %d: unexpected status %d", i, code)
		}
	}
	if !tripped {
		t.Fatalf("[it] rate limit never tripped after 25 attempts")
	}
}
