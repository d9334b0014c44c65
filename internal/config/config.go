package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Reservation ReservationConfig
	Secrets     SecretsConfig
	Checkout    CheckoutConfig
	Logger      LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ReservationConfig holds seat reservation lifetimes
type ReservationConfig struct {
	TTL                time.Duration
	ExtensionIncrement time.Duration
	LowWaterMark       time.Duration
	MaxLifetime        time.Duration
	SweepInterval      time.Duration
}

// SecretsConfig selects the master key backend for gateway credential
// encryption. Backend is one of: env, aws, vault.
type SecretsConfig struct {
	Backend       string
	MasterKeyPath string // secret path (or env var name for the env backend)
	AWSRegion     string
	VaultAddr     string
	VaultToken    string
	VaultMount    string
}

// CheckoutConfig holds checkout session defaults
type CheckoutConfig struct {
	ReturnURL string // where providers send the shopper back after payment
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "checkout_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Reservation: ReservationConfig{
			TTL:                getEnvAsDuration("RESERVATION_TTL", 15*time.Minute),
			ExtensionIncrement: getEnvAsDuration("RESERVATION_EXTENSION", 10*time.Minute),
			LowWaterMark:       getEnvAsDuration("RESERVATION_LOW_WATER", 5*time.Minute),
			MaxLifetime:        getEnvAsDuration("RESERVATION_MAX_LIFETIME", 2*time.Hour),
			SweepInterval:      getEnvAsDuration("RESERVATION_SWEEP_INTERVAL", time.Minute),
		},
		Secrets: SecretsConfig{
			Backend:       getEnv("SECRETS_BACKEND", "env"),
			MasterKeyPath: getEnv("SECRETS_MASTER_KEY_PATH", "GATEWAY_MASTER_KEY"),
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			VaultAddr:     getEnv("VAULT_ADDR", ""),
			VaultToken:    getEnv("VAULT_TOKEN", ""),
			VaultMount:    getEnv("VAULT_MOUNT", "secret"),
		},
		Checkout: CheckoutConfig{
			ReturnURL: getEnv("CHECKOUT_RETURN_URL", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Checkout.ReturnURL == "" {
		return nil, fmt.Errorf("CHECKOUT_RETURN_URL is required")
	}
	switch cfg.Secrets.Backend {
	case "env", "aws":
	case "vault":
		if cfg.Secrets.VaultAddr == "" || cfg.Secrets.VaultToken == "" {
			return nil, fmt.Errorf("VAULT_ADDR and VAULT_TOKEN are required for the vault backend")
		}
	default:
		return nil, fmt.Errorf("unknown SECRETS_BACKEND %q", cfg.Secrets.Backend)
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
