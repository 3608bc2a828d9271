package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// PayrollConfig holds payroll engine knobs
type PayrollConfig struct {
	// OnMissingRate decides what happens when no exchange rate covers a
	// conversion: "identity" keeps the amount 1:1, "fail" aborts the run.
	OnMissingRate string

	NotifyWorkers       int
	NotifyQueueSize     int
	NotifyBatchSize     int
	NotifyFlushInterval time.Duration
}

func Load() (*Config, error) {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hrmis"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	notifyWorkers, err := strconv.Atoi(getEnv("NOTIFY_WORKERS", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_WORKERS: %w", err)
	}
	notifyQueueSize, err := strconv.Atoi(getEnv("NOTIFY_QUEUE_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_QUEUE_SIZE: %w", err)
	}
	notifyBatchSize, err := strconv.Atoi(getEnv("NOTIFY_BATCH_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_BATCH_SIZE: %w", err)
	}
	notifyFlushInterval, err := time.ParseDuration(getEnv("NOTIFY_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_FLUSH_INTERVAL: %w", err)
	}

	config.Payroll = PayrollConfig{
		OnMissingRate:       getEnv("PAYROLL_ON_MISSING_RATE", "identity"),
		NotifyWorkers:       notifyWorkers,
		NotifyQueueSize:     notifyQueueSize,
		NotifyBatchSize:     notifyBatchSize,
		NotifyFlushInterval: notifyFlushInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.OnMissingRate != "identity" && c.Payroll.OnMissingRate != "fail" {
		return fmt.Errorf("PAYROLL_ON_MISSING_RATE must be identity or fail")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
