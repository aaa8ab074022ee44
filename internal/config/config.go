package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	APIBaseURL  string
	APITimeout  time.Duration
	ProfilePath string

	SessionSecret          string
	SessionCookieName      string
	SessionCookieSecure    bool
	SessionIdleTTL         time.Duration
	SessionPurgeSchedule   string
	SessionVerifyOnRestore bool

	StorageDriver string
	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	SQLitePath    string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	LogLevel       string
	LogFormat      string
	LogFile        string
	MetricsEnabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),

		APIBaseURL:  strings.TrimRight(getEnv("FPC_API_BASE_URL", "http://localhost:5000"), "/"),
		APITimeout:  getDuration("FPC_API_TIMEOUT", 10*time.Second),
		ProfilePath: getEnvAllowEmpty("FPC_PROFILE_PATH", "/api/users/me"),

		SessionSecret:          strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionCookieName:      getEnv("SESSION_COOKIE_NAME", "fpc_session"),
		SessionCookieSecure:    getBool("SESSION_COOKIE_SECURE", false),
		SessionIdleTTL:         getDuration("SESSION_IDLE_TTL", 7*24*time.Hour),
		SessionPurgeSchedule:   getEnv("SESSION_PURGE_SCHEDULE", "@every 15m"),
		SessionVerifyOnRestore: getBool("SESSION_VERIFY_ON_RESTORE", false),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:    int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:    int32(getInt("DB_MIN_CONNS", 1)),
		SQLitePath:    getEnv("SQLITE_PATH", "./state/portal.db"),

		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "")),
		RateLimitRPM:     getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM: getInt("AUTH_RATE_LIMIT_RPM", 10),

		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogFile:        strings.TrimSpace(os.Getenv("LOG_FILE")),
		MetricsEnabled: getBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("FPC_API_BASE_URL must be an absolute URL")
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("FPC_API_TIMEOUT must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	case StorageDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty when STORAGE_DRIVER=sqlite")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of postgres, sqlite, memory")
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	return nil
}

// Keys are the independent secrets derived from SESSION_SECRET.
type Keys struct {
	CookieHash  []byte
	CookieBlock []byte
	CSRF        []byte
}

// DeriveKeys expands SESSION_SECRET into one key per purpose so that no two
// mechanisms share key material.
func (c *Config) DeriveKeys() (Keys, error) {
	derive := func(info string, size int) ([]byte, error) {
		out := make([]byte, size)
		reader := hkdf.New(sha256.New, []byte(c.SessionSecret), nil, []byte("fpc-portal/"+info))
		if _, err := io.ReadFull(reader, out); err != nil {
			return nil, fmt.Errorf("derive %s key: %w", info, err)
		}
		return out, nil
	}

	hash, err := derive("cookie-hash", 64)
	if err != nil {
		return Keys{}, err
	}
	block, err := derive("cookie-block", 32)
	if err != nil {
		return Keys{}, err
	}
	csrfKey, err := derive("csrf", 32)
	if err != nil {
		return Keys{}, err
	}

	return Keys{CookieHash: hash, CookieBlock: block, CSRF: csrfKey}, nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

// getEnvAllowEmpty distinguishes "unset" from "set to empty", which disables
// optional features.
func getEnvAllowEmpty(key string, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	return strings.TrimSpace(v)
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
