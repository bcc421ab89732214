package core

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDatabaseURL is returned by Validate when DATABASE_URL is not set.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

// Config holds runtime settings for the API process.
type Config struct {
	Port              string        // HTTP listen port (e.g., "5000")
	LogDir            string        // Directory to write application logs
	DatabaseURL       string        // PostgreSQL DSN (required)
	RunMigrations     bool          // Apply embedded goose migrations at startup
	JWTSecretKey      string        // HS256 signing key for access tokens
	AccessTokenTTL    time.Duration // Lifetime of issued access tokens
	FrontendOrigin    string        // Allowed CORS origin for /api/*
	SessionKey        string        // Cookie signing key for the index page session
	CookieSecure      bool          // Whether to set Secure flag on session cookie
	RedisURL          string        // Redis URL for dashboard cache; empty disables caching
	DashboardCacheTTL time.Duration // How long cached dashboard stats stay valid
	SeedUsersPath     string        // Optional YAML file overriding the embedded user seed
}

// Load populates Config from environment variables with sane defaults.
// DATABASE_URL has no default; call Validate before using the result.
func Load() Config {
	return Config{
		Port:              firstNonEmpty(os.Getenv("PORT"), "5000"),
		LogDir:            firstNonEmpty(os.Getenv("LOG_DIR"), "./logs"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RunMigrations:     boolFromEnv("RUN_MIGRATIONS", true),
		JWTSecretKey:      firstNonEmpty(os.Getenv("JWT_SECRET_KEY"), "a-default-secret-key-for-dev"),
		AccessTokenTTL:    durationFromEnv("JWT_ACCESS_TOKEN_EXPIRES", 15*time.Minute),
		FrontendOrigin:    firstNonEmpty(os.Getenv("FRONTEND_CORS_ORIGIN"), "http://localhost:3000"),
		SessionKey:        os.Getenv("SESSION_KEY"),
		CookieSecure:      boolFromEnv("COOKIE_SECURE", false),
		RedisURL:          os.Getenv("REDIS_URL"),
		DashboardCacheTTL: durationFromEnv("DASHBOARD_CACHE_TTL", time.Minute),
		SeedUsersPath:     os.Getenv("SEED_USERS_PATH"),
	}
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTL <= 0 {
		return errors.New("JWT_ACCESS_TOKEN_EXPIRES must be positive")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// durationFromEnv accepts Go durations ("90s") or a bare number of seconds.
func durationFromEnv(name string, defaultVal time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
