// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/travito/travito"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	// DevSessionSecret is used outside production when no secret is configured.
	DevSessionSecret = "dev-secret-change-in-production"

	DefaultDatabaseURL = "file:travito.db"
)

// Config holds the whole process configuration. It is read once at startup
// and treated as immutable afterwards.
type Config struct {
	Env string

	// Database
	DatabaseURL string

	// Session
	SessionSecret string
	SessionMaxAge time.Duration

	// OAuth
	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string

	// Optional revocation list
	RedisURL string

	// Rate limit for credential sign-in and registration
	RateLimitAuthPerMinute int
	RateLimitAuthBurst     int

	// Logging
	LogLevel string

	// Server
	Port    string
	BaseURL string

	// Cookie
	CookieSecure bool

	// Non-fatal problems found while loading. Empty in production, where
	// they are errors instead.
	Warnings []string

	// Raw presence of the recognized variables, for the env report.
	present map[string]bool
}

var recognized = []string{
	"NODE_ENV", "DATABASE_URL", "NEXTAUTH_SECRET",
	"GITHUB_ID", "GITHUB_SECRET", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
	"REDIS_URL",
}

// Load reads the configuration from the environment.
// In production a missing session secret or database URL is an error
// wrapping travito.ErrConfiguration; elsewhere defaults are used and a
// warning is recorded.
func Load() (*Config, error) {
	cfg := &Config{present: map[string]bool{}}
	for _, key := range recognized {
		cfg.present[key] = strings.TrimSpace(os.Getenv(key)) != ""
	}
	cfg.present["NEXTAUTH_SECRET"] = cfg.present["NEXTAUTH_SECRET"] || strings.TrimSpace(os.Getenv("SESSION_SECRET")) != ""

	cfg.Env = strings.ToLower(getEnvString("NODE_ENV", getEnvString("APP_ENV", EnvDevelopment)))
	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return nil, fmt.Errorf("%w: unknown NODE_ENV %q", travito.ErrConfiguration, cfg.Env)
	}

	var missing []string

	cfg.DatabaseURL = getEnvString("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			missing = append(missing, "DATABASE_URL")
		} else {
			cfg.DatabaseURL = DefaultDatabaseURL
			cfg.Warnings = append(cfg.Warnings, "DATABASE_URL is not set, using "+DefaultDatabaseURL)
		}
	}

	cfg.SessionSecret = getEnvString("NEXTAUTH_SECRET", getEnvString("SESSION_SECRET", ""))
	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			missing = append(missing, "NEXTAUTH_SECRET")
		} else {
			cfg.SessionSecret = DevSessionSecret
			cfg.Warnings = append(cfg.Warnings, "NEXTAUTH_SECRET is not set, using the development secret")
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: required environment variables are not set: %v", travito.ErrConfiguration, missing)
	}

	cfg.GitHubClientID = getEnvString("GITHUB_ID", "")
	cfg.GitHubClientSecret = getEnvString("GITHUB_SECRET", "")
	cfg.GoogleClientID = getEnvString("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = getEnvString("GOOGLE_CLIENT_SECRET", "")
	if (cfg.GitHubClientID == "") != (cfg.GitHubClientSecret == "") {
		cfg.Warnings = append(cfg.Warnings, "only one of GITHUB_ID and GITHUB_SECRET is set, GitHub sign-in is disabled")
	}
	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		cfg.Warnings = append(cfg.Warnings, "only one of GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET is set, Google sign-in is disabled")
	}

	cfg.SessionMaxAge = getEnvDuration("SESSION_MAX_AGE", travito.DefaultSessionMaxAge)
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.RateLimitAuthPerMinute = getEnvInt("RATE_LIMIT_AUTH_PER_MINUTE", 10)
	cfg.RateLimitAuthBurst = getEnvInt("RATE_LIMIT_AUTH_BURST", 5)
	cfg.Port = getEnvString("PORT", "3000")
	cfg.BaseURL = strings.TrimSuffix(getEnvString("BASE_URL", "http://localhost:"+cfg.Port), "/")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	defaultLevel := "info"
	if cfg.Env == EnvDevelopment {
		defaultLevel = "debug"
	}
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", defaultLevel))

	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// HasSessionSecret reports whether a real (non-development) secret is configured.
func (c *Config) HasSessionSecret() bool {
	return c.SessionSecret != "" && c.SessionSecret != DevSessionSecret
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// EnvReport lists whether each recognized variable is set, never its value.
func (c *Config) EnvReport() map[string]string {
	setOrNot := func(key string) string {
		if c.present[key] {
			return "Set"
		}
		return "Not Set"
	}
	return map[string]string{
		"nodeEnv":            c.Env,
		"githubId":           setOrNot("GITHUB_ID"),
		"githubSecret":       setOrNot("GITHUB_SECRET"),
		"googleClientId":     setOrNot("GOOGLE_CLIENT_ID"),
		"googleClientSecret": setOrNot("GOOGLE_CLIENT_SECRET"),
		"nextAuthSecret":     setOrNot("NEXTAUTH_SECRET"),
		"databaseUrl":        setOrNot("DATABASE_URL"),
		"redisUrl":           setOrNot("REDIS_URL"),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
