// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WebhookConfig provides settings for inbound CRM webhook authentication
// and reconciliation tuning.
type WebhookConfig interface {
	GetWebhookToken() string
	GetStageDebounceWindow() time.Duration
}

// CRMConfig provides settings for the outbound CRM API client.
type CRMConfig interface {
	GetCRMAPIBaseURL() string
	GetCRMAPIKey() string
	IsCRMAPIEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	WebhookToken        string
	StageDebounceWindow time.Duration
	CRMAPIBaseURL       string
	CRMAPIKey           string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// WebhookConfig implementation
func (c *Config) GetWebhookToken() string { return c.WebhookToken }

// GetStageDebounceWindow returns the window within which a webhook-reported
// stage transition matching a just-recorded SYSTEM transition is treated as
// a duplicate echo. This is a tuning heuristic, not a correctness guarantee:
// clock skew between the CRM and this service can defeat it.
func (c *Config) GetStageDebounceWindow() time.Duration { return c.StageDebounceWindow }

// CRMConfig implementation
func (c *Config) GetCRMAPIBaseURL() string { return c.CRMAPIBaseURL }
func (c *Config) GetCRMAPIKey() string     { return c.CRMAPIKey }
func (c *Config) IsCRMAPIEnabled() bool    { return c.CRMAPIBaseURL != "" && c.CRMAPIKey != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		WebhookToken:        getEnv("CRM_WEBHOOK_TOKEN", ""),
		StageDebounceWindow: mustDuration(getEnv("STAGE_DEBOUNCE_WINDOW", "10s")),
		CRMAPIBaseURL:       getEnv("CRM_API_BASE_URL", ""),
		CRMAPIKey:           getEnv("CRM_API_KEY", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WebhookToken == "" {
		return nil, fmt.Errorf("CRM_WEBHOOK_TOKEN is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.StageDebounceWindow <= 0 {
		return nil, fmt.Errorf("STAGE_DEBOUNCE_WINDOW must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
