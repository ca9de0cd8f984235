package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                       string
	DatabaseURL                string
	JWTSecret                  string
	TokenTTL                   time.Duration
	Environment                string
	BusinessTimezone           string
	SubmissionReminderInterval time.Duration
	ExpirationReminderInterval time.Duration
	SeedAdminEmail             string
	SeedAdminPassword          string
	EmailFrom                  string
	EmailEnabled               bool
	SMTPHost                   string
	SMTPPort                   int
	SMTPUser                   string
	SMTPPassword               string
	SMTPUseTLS                 bool
	RunMigrations              bool
	RunSeed                    bool
	MaxBodyBytes               int64
	MetricsEnabled             bool
}

func Load() Config {
	return Config{
		Addr:                       getEnv("APP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		TokenTTL:                   getEnvDuration("TOKEN_TTL", 12*time.Hour),
		Environment:                getEnv("APP_ENV", "development"),
		BusinessTimezone:           getEnv("BUSINESS_TIMEZONE", "America/Los_Angeles"),
		SubmissionReminderInterval: getEnvDuration("SUBMISSION_REMINDER_INTERVAL", time.Hour),
		ExpirationReminderInterval: getEnvDuration("EXPIRATION_REMINDER_INTERVAL", 24*time.Hour),
		SeedAdminEmail:             getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:          getEnv("SEED_ADMIN_PASSWORD", ""),
		EmailFrom:                  getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:               getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   getEnvInt("SMTP_PORT", 587),
		SMTPUser:                   getEnv("SMTP_USER", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:                 getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:              getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                    getEnvBool("RUN_SEED", true),
		MaxBodyBytes:               int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.SubmissionReminderInterval <= 0 || c.ExpirationReminderInterval <= 0 {
		return fmt.Errorf("reminder intervals must be positive")
	}
	return nil
}

// BusinessLocation resolves the business timezone, falling back to UTC
// when the name cannot be loaded.
func (c Config) BusinessLocation() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
