package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""), "empty.yml")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, defaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, StateDriverRedis, cfg.State.Driver)
	assert.True(t, cfg.Auth.CookieHTTPOnly)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "root:password@tcp(127.0.0.1:3306)/mutuals?charset=utf8mb4&loc=Local&parseTime=true", cfg.DSN)
	assert.Equal(t, defaultAPIBaseURL+"/media/upload", cfg.UploadEndpoint())
}

func TestParseOverrides(t *testing.T) {
	content := []byte(`
port: 8080
env: Production
api:
  base_url: https://api.mutuals.plus/api/
  upload_url: https://api.mutuals.plus/api/media/upload
  timeout: 5s
site:
  name: Mutuals+
  url: https://mutuals.plus/
shop:
  checkout_url: https://shop.mutuals.plus/
  currency: gbp
auth:
  cookie_http_only: false
state:
  driver: SQL
cache:
  ttl: 30s
redis:
  url: cache.internal:6380/2
database:
  host: db.internal
  name: site
allowed_origins: [" https://mutuals.plus ", ""]
`)
	cfg, err := Parse(content, "test.yml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "https://api.mutuals.plus/api", cfg.API.BaseURL)
	assert.Equal(t, "https://api.mutuals.plus/api/media/upload", cfg.UploadEndpoint())
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "https://mutuals.plus", cfg.Site.URL)
	assert.Equal(t, "https://shop.mutuals.plus", cfg.Shop.CheckoutURL)
	assert.Equal(t, "GBP", cfg.Shop.Currency)
	assert.False(t, cfg.Auth.CookieHTTPOnly)
	assert.Equal(t, StateDriverSQL, cfg.State.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis://cache.internal:6380/2", cfg.RedisURL)
	assert.Contains(t, cfg.DSN, "tcp(db.internal:3306)/site")
	assert.Equal(t, []string{"https://mutuals.plus"}, cfg.AllowedOrigins)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "nope: 1\n",
		"bad port":       "port: 70000\n",
		"bad driver":     "state:\n  driver: etcd\n",
		"bad timeout":    "api:\n  timeout: soon\n",
		"bad base url":   "api:\n  base_url: ftp://example.com\n",
		"image bed gaps": "uploads:\n  image_bed:\n    enable: true\n    bucket: media\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), "bad.yml")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4100\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4100, cfg.Port)
}

func TestOverride(t *testing.T) {
	cfg, err := Parse([]byte("port: 8080\n"), "test.yml")
	require.NoError(t, err)

	require.NoError(t, cfg.Override(0, ""))
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.IsDev())

	require.NoError(t, cfg.Override(9000, " Production "))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "production", cfg.Env)

	assert.Error(t, cfg.Override(70000, ""))
}

func TestLogDir(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "mutuals-logs")
	cfg := &AppConfig{}
	cfg.Paths.Logs = abs
	assert.Equal(t, abs, cfg.LogDir())

	cfg.Paths.Logs = "var/log"
	got := cfg.LogDir()
	assert.True(t, filepath.IsAbs(got), got)
	assert.Equal(t, filepath.Join("var", "log"), filepath.Join(filepath.Base(filepath.Dir(got)), filepath.Base(got)))

	var unset *AppConfig
	assert.Equal(t, "logs", filepath.Base(unset.LogDir()))
}
