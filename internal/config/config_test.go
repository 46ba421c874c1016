package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("TODO_STORE", "")

	cfg, err := Load(":8000")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.AuthEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadPortOnly(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "9090")

	cfg, err := Load(":8000")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte("addr: \":7000\"\nstore: file\ndata_file: /tmp/todos.json\nauth_enabled: true\njwt_secret: from-file\ntoken_ttl: 10m\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("TODO_STORE", "")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(":8000")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "/tmp/todos.json", cfg.DataFile)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 10*time.Minute, cfg.TokenTTL)
}

func TestLoadFileDisablesLoginLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := []byte("login_rate: 0\nlogin_burst: 3\ntrust_proxy: true\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOGIN_RATE", "")
	t.Setenv("LOGIN_BURST", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load(":8000")
	require.NoError(t, err)
	assert.Zero(t, cfg.LoginRate)
	assert.Equal(t, 3, cfg.LoginBurst)
	assert.True(t, cfg.TrustProxy)
}

func TestLoadFileKeepsDefaultLoginRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("store: memory\n"), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOGIN_RATE", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load(":8000")
	require.NoError(t, err)
	assert.Equal(t, Default(":8000").LoginRate, cfg.LoginRate)
	assert.False(t, cfg.TrustProxy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"unknown store", func(c *Config) { c.Store = "redis" }, false},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }, false},
		{"postgres with dsn", func(c *Config) {
			c.Store = StorePostgres
			c.DatabaseURL = "postgres://localhost/todo"
		}, true},
		{"auth without secret", func(c *Config) { c.AuthEnabled = true }, false},
		{"auth with secret", func(c *Config) {
			c.AuthEnabled = true
			c.JWTSecret = "s3cret"
		}, true},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, false},
		{"login limit disabled", func(c *Config) { c.LoginRate = 0 }, true},
		{"negative login rate", func(c *Config) { c.LoginRate = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(":8000")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
