// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string of the shared tier.
	// Optional: when empty, shared trips live only in the local tiers.
	DatabaseURL string

	// LocalDBPath is the SQLite file backing the per-device tier.
	// Defaults to "tripmate.db". ":memory:" keeps SQLite in memory; set
	// LOCAL_DB_PATH to "none" to use plain in-memory repos instead.
	LocalDBPath string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// PublicBaseURL is the origin invite links point at.
	// Defaults to "http://localhost:5173".
	PublicBaseURL string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// EnableDebugRoutes mounts DELETE /me/identity. Defaults to false.
	EnableDebugRoutes bool
}

// UseSQLite reports whether the local tier is backed by SQLite.
func (c Config) UseSQLite() bool {
	return c.LocalDBPath != "" && c.LocalDBPath != "none"
}

// LoadDotEnv seeds the environment from the given .env files. Variables that
// are already set win, and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config.LoadDotEnv: %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every variable whose value is invalid.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LocalDBPath:   getEnv("LOCAL_DB_PATH", "tripmate.db"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:5173"),
	}

	var problems []string

	if n, err := strconv.Atoi(cfg.Port); err != nil || n < 1 || n > 65535 {
		problems = append(problems, fmt.Sprintf("PORT: %q is not a valid port", cfg.Port))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL: %q is not one of debug, info, warn, error", cfg.LogLevel))
	}

	if u, err := url.Parse(cfg.PublicBaseURL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		problems = append(problems, fmt.Sprintf("PUBLIC_BASE_URL: %q is not an absolute http(s) URL", cfg.PublicBaseURL))
	}

	if u, err := url.Parse(cfg.DatabaseURL); cfg.DatabaseURL != "" && (err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql")) {
		problems = append(problems, "DATABASE_URL: must be a postgres:// URL")
	}

	raw := getEnv("MAX_BODY_BYTES", "1048576")
	if n, err := strconv.ParseInt(raw, 10, 64); err != nil || n <= 0 {
		problems = append(problems, fmt.Sprintf("MAX_BODY_BYTES: %q is not a positive integer", raw))
	} else {
		cfg.MaxBodyBytes = n
	}

	raw = getEnv("ENABLE_DEBUG_ROUTES", "false")
	if b, err := strconv.ParseBool(raw); err != nil {
		problems = append(problems, fmt.Sprintf("ENABLE_DEBUG_ROUTES: %q is not a boolean", raw))
	} else {
		cfg.EnableDebugRoutes = b
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
