// Package config handles loading application configuration from environment
// variables, with an optional YAML file overlay (CONFIG_FILE). All settings
// have sensible defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings.
type Config struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	TrustedProxies     []string `yaml:"trusted_proxies"`

	// HeartbeatInterval is advertised to clients; PresenceTimeout should
	// exceed it by a safety factor (default 5×) so transient network gaps
	// don't flap the connected count.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	PresenceTimeout   time.Duration `yaml:"presence_timeout"`
	SweepInterval     time.Duration `yaml:"sweep_interval"`

	// SessionTTL is how long a session with zero live clients survives
	// before the janitor evicts it.
	SessionTTL         time.Duration `yaml:"session_ttl"`
	JanitorInterval    time.Duration `yaml:"janitor_interval"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`

	CatalogBaseURL string `yaml:"catalog_base_url"`

	SentryDSN         string `yaml:"sentry_dsn"`
	SentryEnvironment string `yaml:"sentry_environment"`
}

// Load reads configuration from environment variables, using defaults where
// not set. When CONFIG_FILE points at a YAML file its values override the
// environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		TrustedProxies:     getStringSliceEnv("TRUSTED_PROXIES", nil),
		HeartbeatInterval:  getDurationEnv("HEARTBEAT_INTERVAL", 2*time.Second),
		PresenceTimeout:    getDurationEnv("PRESENCE_TIMEOUT", 0),
		SweepInterval:      getDurationEnv("SWEEP_INTERVAL", 3*time.Second),
		SessionTTL:         getDurationEnv("SESSION_TTL", 10*time.Minute),
		JanitorInterval:    getDurationEnv("JANITOR_INTERVAL", time.Minute),
		PollInterval:       getDurationEnv("POLL_INTERVAL", 1500*time.Millisecond),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),
		CatalogBaseURL:     getEnv("CATALOG_BASE_URL", "http://localhost:9090/api/drive"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		SentryEnvironment:  getEnv("SENTRY_ENVIRONMENT", "production"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.PresenceTimeout == 0 {
		cfg.PresenceTimeout = 5 * cfg.HeartbeatInterval
	}
	if cfg.PresenceTimeout <= cfg.HeartbeatInterval {
		return nil, fmt.Errorf("presence timeout (%s) must exceed the heartbeat interval (%s)", cfg.PresenceTimeout, cfg.HeartbeatInterval)
	}

	return cfg, nil
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
