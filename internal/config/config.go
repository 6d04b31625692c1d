package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kevin07696/payin-service/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	PaymentDB    DatabaseConfig
	MainDB       DatabaseConfig
	Gateway      GatewayConfig
	Logger       LoggerConfig
	Secrets      SecretsConfig
	FeatureFlags map[string]bool
}

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration for one database. The payin
// service carries two of these: the payment DB and the legacy main DB.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	ReplicaHost string // empty means no replica, reads go to the primary
	MaxConns    int32
	MinConns    int32
}

// GatewayConfig holds card gateway configuration
type GatewayConfig struct {
	BaseURL string
	// APIKeys maps country code to the gateway secret key for that
	// country's merchant account. Values may be secret references
	// resolved at bootstrap.
	APIKeys map[domain.CountryCode]string
	Timeout int // Request timeout in seconds (default: 30)
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// SecretsConfig selects the secret manager backend
type SecretsConfig struct {
	Backend      string // env, aws, vault
	AWSRegion    string
	AWSEndpoint  string // LocalStack override, empty in production
	VaultAddress string
	VaultToken   string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 50051),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		PaymentDB: loadDatabaseConfig("PAYMENT_DB", "payin"),
		MainDB:    loadDatabaseConfig("MAIN_DB", "maindb"),
		Gateway: GatewayConfig{
			BaseURL: getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			APIKeys: map[domain.CountryCode]string{
				domain.CountryUS: getEnv("STRIPE_API_KEY_US", ""),
				domain.CountryCA: getEnv("STRIPE_API_KEY_CA", ""),
				domain.CountryAU: getEnv("STRIPE_API_KEY_AU", ""),
			},
			Timeout: getEnvAsInt("STRIPE_TIMEOUT", 30),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Secrets: SecretsConfig{
			Backend:      getEnv("SECRET_MANAGER", "env"),
			AWSRegion:    getEnv("AWS_REGION", "us-west-2"),
			AWSEndpoint:  getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress: getEnv("VAULT_ADDR", ""),
			VaultToken:   getEnv("VAULT_TOKEN", ""),
		},
		FeatureFlags: loadFeatureFlags(),
	}

	// Validate required fields
	if cfg.PaymentDB.Password == "" {
		return nil, fmt.Errorf("PAYMENT_DB_PASSWORD is required")
	}
	if cfg.MainDB.Password == "" {
		return nil, fmt.Errorf("MAIN_DB_PASSWORD is required")
	}
	if cfg.Gateway.APIKeys[domain.CountryUS] == "" {
		return nil, fmt.Errorf("STRIPE_API_KEY_US is required")
	}

	return cfg, nil
}

func loadDatabaseConfig(prefix, defaultName string) DatabaseConfig {
	return DatabaseConfig{
		Host:        getEnv(prefix+"_HOST", "localhost"),
		Port:        getEnvAsInt(prefix+"_PORT", 5432),
		User:        getEnv(prefix+"_USER", "postgres"),
		Password:    getEnv(prefix+"_PASSWORD", ""),
		Database:    getEnv(prefix+"_NAME", defaultName),
		SSLMode:     getEnv(prefix+"_SSL_MODE", "disable"),
		ReplicaHost: getEnv(prefix+"_REPLICA_HOST", ""),
		MaxConns:    int32(getEnvAsInt(prefix+"_MAX_CONNS", 25)),
		MinConns:    int32(getEnvAsInt(prefix+"_MIN_CONNS", 5)),
	}
}

// loadFeatureFlags parses FEATURE_FLAGS, a comma-separated list of
// name=bool pairs, e.g. "payin_legacy_shadow_writes=true".
func loadFeatureFlags() map[string]bool {
	flags := make(map[string]bool)
	raw := os.Getenv("FEATURE_FLAGS")
	if raw == "" {
		return flags
	}
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			continue
		}
		flags[name] = enabled
	}
	return flags
}

// ConnectionString returns the PostgreSQL connection string for the primary
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// ReplicaConnectionString returns the replica connection string, empty when
// no replica is configured
func (c *DatabaseConfig) ReplicaConnectionString() string {
	if c.ReplicaHost == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.ReplicaHost, c.Port, c.Database, c.SSLMode,
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
