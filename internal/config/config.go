package config

import "os"

// Config holds the application configuration. The engines are pure;
// everything here concerns the HTTP surface and observability.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Optional generation-history database
	DatabaseURL string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	AuthMode string
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AuthMode:    getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind an edge gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}
