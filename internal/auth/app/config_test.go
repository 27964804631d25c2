package app

import (
	"testing"
	"time"

	"github.com/coachhub/platform/pkg/httpx"
	"github.com/coachhub/platform/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"AUTH_ISSUER", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL", "KV_BACKEND", "PORT", "RATELIMIT_STRICT_REQUESTS", "AUTH_RESTRICT_ADMIN_SIGNUP", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "coach-auth", cfg.Issuer)
	require.Equal(t, jwtx.DefaultAccessTokenTTL, cfg.AccessTTL)
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, cfg.RefreshTTL)
	require.Equal(t, 10*time.Minute, cfg.SignupOTPTTL)
	require.Equal(t, "memory", cfg.KVBackend)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, httpx.StrictLimit, cfg.RateLimitStrict)
	require.False(t, cfg.RestrictAdminSignup)
	require.Empty(t, cfg.TrustedProxies)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("AUTH_ISSUER", "coach-staging")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("JWT_REFRESH_TTL", "2w")
	t.Setenv("KV_BACKEND", "Redis")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "3")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "100")
	t.Setenv("AUTH_RESTRICT_ADMIN_SIGNUP", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.168.1.1")

	cfg := LoadConfig()
	require.Equal(t, "coach-staging", cfg.Issuer)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 14*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, "redis", cfg.KVBackend)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 3*time.Minute, cfg.ShutdownGracePeriod)
	require.Equal(t, 100, cfg.RateLimitStrict.RequestsPerWindow)
	require.True(t, cfg.RestrictAdminSignup)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

func TestLoadConfigIgnoresBadValues(t *testing.T) {
	t.Setenv("JWT_REFRESH_TTL", "forever")
	t.Setenv("PORT", "eighty")

	cfg := LoadConfig()
	require.Equal(t, jwtx.DefaultRefreshTokenTTL, cfg.RefreshTTL)
	require.Equal(t, 8080, cfg.Port)
}
