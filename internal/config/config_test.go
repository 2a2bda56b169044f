package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("ENV", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "http://localhost:8000", c.GetAPIBaseURL())
	require.Equal(t, "/api/auth/login/", c.GetLoginPath())
	require.Equal(t, "/api/auth/token/refresh/", c.GetRefreshPath())
	require.Equal(t, "token_not_valid", c.GetInvalidTokenCode())
	require.Equal(t, "is_partner", c.GetRequiredRoleFlag())
	require.Equal(t, time.Duration(0), c.GetAPITimeout())
	require.False(t, c.GetSecureCookies())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("REFRESH_COALESCING", "true")
	t.Setenv("ENV", "PROD")

	c := config.New()
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, 3*time.Second, c.GetAPITimeout())
	require.True(t, c.GetRefreshCoalescing())
	require.True(t, c.GetSecureCookies())
}

func TestNewFromFile(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.example.com")
	t.Setenv("REFRESH_COALESCING", "")

	t.Run("file values take precedence", func(t *testing.T) {
		path := writeConfig(t, `
app:
  name: Acme Partners
  port: "7000"
api:
  base_url: https://api.acme.test
  required_role_flag: is_staff
  timeout: 10s
  coalesce_refresh: true
security:
  cookie_name: acme_sid
`)
		c, err := config.NewFromFile(path)
		require.NoError(t, err)
		require.Equal(t, "Acme Partners", c.GetAppName())
		require.Equal(t, ":7000", c.GetPort())
		require.Equal(t, "https://api.acme.test", c.GetAPIBaseURL())
		require.Equal(t, "is_staff", c.GetRequiredRoleFlag())
		require.Equal(t, 10*time.Second, c.GetAPITimeout())
		require.True(t, c.GetRefreshCoalescing())
		require.Equal(t, "acme_sid", c.GetSessionCookieName())
	})

	t.Run("missing values fall back to env", func(t *testing.T) {
		path := writeConfig(t, "app:\n  log_level: debug\n")
		c, err := config.NewFromFile(path)
		require.NoError(t, err)
		require.Equal(t, "http://env.example.com", c.GetAPIBaseURL())
		require.Equal(t, "debug", c.GetLogLevel())
		require.Equal(t, "dashboard_session", c.GetSessionCookieName())
	})

	t.Run("relative base url rejected", func(t *testing.T) {
		path := writeConfig(t, "api:\n  base_url: /api\n")
		_, err := config.NewFromFile(path)
		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrInvalidConfig)
		require.Contains(t, err.Error(), "absolute URL")
	})

	t.Run("empty path", func(t *testing.T) {
		c, err := config.NewFromFile("")
		require.NoError(t, err)
		require.Equal(t, "http://env.example.com", c.GetAPIBaseURL())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestParseAllowedOrigins(t *testing.T) {
	origins := config.ParseAllowedOrigins(" https://a.test, ,https://b.test")
	require.True(t, origins.IsAllowedOrigin("https://a.test"))
	require.True(t, origins.IsAllowedOrigin("https://b.test"))
	require.False(t, origins.IsAllowedOrigin(""))
	require.Equal(t, "https://a.test, https://b.test", origins.String())
}
