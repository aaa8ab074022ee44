package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "memory")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, "http://localhost:5000", cfg.APIBaseURL)
	require.Equal(t, "/api/users/me", cfg.ProfilePath)
	require.Equal(t, "fpc_session", cfg.SessionCookieName)
	require.Equal(t, 7*24*time.Hour, cfg.SessionIdleTTL)
	require.False(t, cfg.SessionVerifyOnRestore)
	require.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	require.Equal(t, "pretty", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FPC_API_BASE_URL", "https://fpc.example.org/")
	t.Setenv("FPC_PROFILE_PATH", "")
	t.Setenv("SESSION_VERIFY_ON_RESTORE", "true")
	t.Setenv("SESSION_IDLE_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("AUTH_RATE_LIMIT_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://fpc.example.org", cfg.APIBaseURL)
	require.Empty(t, cfg.ProfilePath)
	require.True(t, cfg.SessionVerifyOnRestore)
	require.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 10, cfg.AuthRateLimitRPM)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:     "8080",
			APIBaseURL:     "http://localhost:5000",
			APITimeout:     time.Second,
			RequestTimeout: time.Second,
			SessionSecret:  testSecret,
			SessionIdleTTL: time.Hour,
			StorageDriver:  StorageDriverMemory,
			LogFormat:      "json",
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "short secret", mutate: func(c *Config) { c.SessionSecret = "short" }, errMsg: "SESSION_SECRET"},
		{name: "relative base url", mutate: func(c *Config) { c.APIBaseURL = "/api" }, errMsg: "FPC_API_BASE_URL"},
		{name: "postgres without url", mutate: func(c *Config) { c.StorageDriver = StorageDriverPostgres }, errMsg: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "redis" }, errMsg: "STORAGE_DRIVER"},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, errMsg: "LOG_FORMAT"},
		{name: "zero idle ttl", mutate: func(c *Config) { c.SessionIdleTTL = 0 }, errMsg: "SESSION_IDLE_TTL"},
	}

	require.NoError(t, valid().Validate())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestDeriveKeysIsDeterministicAndSeparated(t *testing.T) {
	cfg := &Config{SessionSecret: testSecret}

	first, err := cfg.DeriveKeys()
	require.NoError(t, err)
	second, err := cfg.DeriveKeys()
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first.CookieHash, 64)
	require.Len(t, first.CookieBlock, 32)
	require.Len(t, first.CSRF, 32)
	require.NotEqual(t, first.CookieBlock, first.CSRF)
}
