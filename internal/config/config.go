package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	JWTSecret     string
	CBRURL        string
	KeyRateMargin float64
	HMACSecret    string
	EncryptionKey string
	Store         string
	Migrate       bool

	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SenderEmail    string
	SecurityEmail  string
	DigestSchedule string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBConn:         getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=cards sslmode=disable"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		CBRURL:         getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		HMACSecret:     getEnv("HMAC_SECRET", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		EncryptionKey:  getEnv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		Store:          strings.ToLower(getEnv("STORE", StorePostgres)),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SenderEmail:    getEnv("SENDER_EMAIL", "noreply@cards.example"),
		SecurityEmail:  getEnv("SECURITY_EMAIL", ""),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "@every 1h"),
	}

	var err error
	if cfg.Migrate, err = strconv.ParseBool(getEnv("MIGRATE", "true")); err != nil {
		return nil, fmt.Errorf("MIGRATE must be a boolean: %w", err)
	}
	if cfg.KeyRateMargin, err = strconv.ParseFloat(getEnv("KEY_RATE_MARGIN", "0"), 64); err != nil {
		return nil, fmt.Errorf("KEY_RATE_MARGIN must be a number: %w", err)
	}

	switch cfg.Store {
	case StorePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.HMACSecret == "" {
		return nil, fmt.Errorf("HMAC_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

// DigestEnabled reports whether the alert digest has somewhere to go
func (c *Config) DigestEnabled() bool {
	return c.SMTPHost != "" && c.SecurityEmail != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
