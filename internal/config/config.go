package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultBackendURL is the local-development backend used when no override is set.
const DefaultBackendURL = "http://localhost:8000"

// CookieStoreType controls where the client's cookie jar is persisted.
type CookieStoreType string

const (
	CookieStoreMemory CookieStoreType = "memory"
	CookieStoreSQLite CookieStoreType = "sqlite"
)

// Config contains all runtime configuration for the client.
type Config struct {
	// Core
	BackendURL string
	LogLevel   string

	// HTTP
	HTTPTimeout time.Duration

	// Cookie jar persistence
	CookieStore CookieStoreType
	CookiePath  string

	// Retraining form schema override (YAML), empty for the built-in defaults
	FieldsFile string

	// Prometheus listener, empty to disable
	MetricsAddr string
}

// Load parses env vars and returns a validated Config.
//
// The backend URL resolves SKINSCAN_BACKEND_URL first, then the
// VITE_BACKEND_SKINSCAN variable used by the web build, then DefaultBackendURL.
func Load() (Config, error) {
	backend := getEnvString("SKINSCAN_BACKEND_URL", "")
	if backend == "" {
		backend = getEnvString("VITE_BACKEND_SKINSCAN", "")
	}
	if backend == "" {
		backend = DefaultBackendURL
	}

	cfg := Config{
		BackendURL: strings.TrimRight(strings.TrimSpace(backend), "/"),
		LogLevel:   getEnvString("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("SKINSCAN_HTTP_TIMEOUT", 30*time.Second),

		CookieStore: CookieStoreType(getEnvString("SKINSCAN_COOKIE_STORE", string(CookieStoreMemory))),
		CookiePath:  getEnvString("SKINSCAN_COOKIE_PATH", defaultCookiePath()),

		FieldsFile:  getEnvString("SKINSCAN_FIELDS_FILE", ""),
		MetricsAddr: getEnvString("SKINSCAN_METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.BackendURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https, got %q", c.BackendURL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend url has no host: %q", c.BackendURL)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid LOG_LEVEL: %q (must be debug|info|warn|error)", c.LogLevel)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("SKINSCAN_HTTP_TIMEOUT must be >= 0")
	}

	switch c.CookieStore {
	case CookieStoreMemory:
		// ok
	case CookieStoreSQLite:
		if c.CookiePath == "" {
			return fmt.Errorf("SKINSCAN_COOKIE_PATH is required when SKINSCAN_COOKIE_STORE=sqlite")
		}
	default:
		return fmt.Errorf("invalid SKINSCAN_COOKIE_STORE: %q (must be memory|sqlite)", c.CookieStore)
	}

	return nil
}

func defaultCookiePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "skinscan-cookies.sqlite"
	}
	return filepath.Join(home, ".skinscan", "cookies.sqlite")
}

// Helper functions for parsing environment variables

func getEnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
