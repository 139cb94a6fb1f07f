package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_PresetFillsEndpoints(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
provider:
  preset: facebook
  client_id: abc
  client_secret: xyz
  redirect_url: https://app.test/auth/callback
  scope: email
cache:
  kind: redis
  redis:
    addr: redis:6379
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "Facebook", c.Provider.Provider)
	assert.Equal(t, "https://graph.facebook.com/oauth/authorize", c.Provider.AuthURL)
	assert.Equal(t, "https://graph.facebook.com/oauth/client_code", c.Provider.RefreshTokenURL)
	assert.Equal(t, "email", c.Provider.Scope)
	assert.Equal(t, "abc", c.Provider.ClientID)
	assert.Equal(t, "redis", c.Cache.Kind)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.True(t, c.Server.SecureCookie, "prod forces secure cookies")
	assert.Equal(t, 10*time.Second, Duration(c.Provider.HTTPTimeout))
}

func TestLoad_ExplicitEndpoints(t *testing.T) {
	p := writeYAML(t, `
provider:
  name: Custom
  auth_url: https://id.test/authorize
  access_token_url: https://id.test/token
  user_info_url: https://id.test/me
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Custom", c.Provider.Provider)
	assert.Empty(t, c.Provider.RefreshTokenURL)
	assert.Equal(t, "memory", c.Cache.Kind)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OAUTH_PROVIDER", "github")
	t.Setenv("OAUTH_CLIENT_ID", "env-id")
	t.Setenv("OAUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("RATE_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "GitHub", c.Provider.Provider)
	assert.Equal(t, "env-id", c.Provider.ClientID)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.True(t, c.Rate.Enabled)
	assert.Equal(t, 3, c.Cache.Redis.DB)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"no endpoints":   "app:\n  env: dev\n",
		"bad preset":     "provider:\n  preset: myspace\n",
		"bad duration":   "provider:\n  preset: google\nrate:\n  window: soon\n",
		"bad cache kind": "provider:\n  preset: google\ncache:\n  kind: memcached\n",
		"bad yaml":       "provider: [",
		"unsafe scope":   "provider:\n  preset: google\n  scope: email&redirect_uri=x\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
