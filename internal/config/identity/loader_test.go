package identity_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSecretsFromEnv(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "env-access-secret")
	t.Setenv("AUTH_REFRESH_SECRET", "env-refresh-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "env-access-secret", cfg.Auth.AccessSecret)
	require.Equal(t, "env-refresh-secret", cfg.Auth.RefreshSecret)

	// Defaults still apply around the env-only keys.
	require.Equal(t, 168*time.Hour, cfg.Auth.AccessTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
}

func TestLoadRequiresSecrets(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.access_secret")
}

func TestLoadRejectsEqualSecrets(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "same-secret")
	t.Setenv("AUTH_REFRESH_SECRET", "same-secret")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must differ")
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("AUTH_ACCESS_SECRET", "env-access-secret")
	t.Setenv("AUTH_REFRESH_SECRET", "env-refresh-secret")
	t.Setenv("SERVER_HTTP_ADDR", ":18080")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":18080", cfg.Server.HTTPAddr)
	require.Equal(t, 5, cfg.RateLimit.MaxRequests)
}
