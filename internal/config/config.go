package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAuthSecret is the placeholder AUTH_SECRET used when none is set
const DefaultAuthSecret = "change-me-in-production"

// Config holds application configuration
type Config struct {
	ServerPort   string
	Environment  string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	CardsPath     string
	OverridesPath string

	// Clinician access. An empty password hash disables the login gate.
	ClinicPasswordHash string
	AuthSecret         string
	SessionDuration    time.Duration

	WorkflowIdleTimeout time.Duration

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:          getEnv("PORT", "8080"),
		Environment:         getEnv("APP_ENV", "development"),
		DatabaseType:        getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:        getEnv("DB_PATH", "./db/clinic.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CardsPath:           getEnv("CARDS_PATH", "./data/cards.json"),
		OverridesPath:       getEnv("OVERRIDES_PATH", ""),
		ClinicPasswordHash:  getEnv("CLINIC_PASSWORD_HASH", ""),
		AuthSecret:          getEnv("AUTH_SECRET", DefaultAuthSecret),
		SessionDuration:     getDuration("SESSION_DURATION", 12*time.Hour),
		WorkflowIdleTimeout: getDuration("WORKFLOW_IDLE_TIMEOUT", 8*time.Hour),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "Detetive da Ajuda"),
	}
}

// AuthEnabled reports whether the clinician login gate is on
func (c *Config) AuthEnabled() bool {
	return c.ClinicPasswordHash != ""
}

// WeakAuthSecret reports whether AuthSecret is empty or the placeholder
func (c *Config) WeakAuthSecret() bool {
	return c.AuthSecret == "" || c.AuthSecret == DefaultAuthSecret
}

// Validate rejects configurations that cannot run safely. The login gate
// requires an AUTH_SECRET other than the placeholder.
func (c *Config) Validate() error {
	if c.AuthEnabled() && c.WeakAuthSecret() {
		return errors.New("AUTH_SECRET must be set to a non-default value when CLINIC_PASSWORD_HASH is set")
	}
	return nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Environment) {
	case "prod", "production":
		return true
	}
	return false
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
