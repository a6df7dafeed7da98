// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// History backends.
const (
	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
)

// Config holds all configuration values for the application.
type Config struct {
	// Application
	Stage          string
	LogLevel       string
	Port           string
	ServiceVersion string

	// Scoring
	ScoringPreset string
	RulesFile     string

	// History
	HistoryBackend string
	HistoryLimit   int

	// Redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Database
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	AutoMigrate bool

	// AWS
	AWSRegion string
	S3Bucket  string

	// SES
	SESSenderEmail string
	DashboardURL   string

	// HTTP
	RateLimitPerMinute int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Application
		Stage:          getEnv("STAGE", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnv("PORT", "8080"),
		ServiceVersion: getEnv("SERVICE_VERSION", "1.0.0"),

		// Scoring
		ScoringPreset: getEnv("SCORING_PRESET", "canonical"),
		RulesFile:     getEnv("RULES_FILE", ""),

		// History
		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", HistoryMemory)),
		HistoryLimit:   getEnvInt("HISTORY_LIMIT", 500),

		// Redis
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "scoring"),

		// Database
		DBHost:      getEnv("DB_HOST", getEnv("LOAN_DB_HOST", "localhost")),
		DBPort:      getEnvInt("DB_PORT", getEnvInt("LOAN_DB_PORT", 5432)),
		DBName:      getEnv("DB_NAME", getEnv("LOAN_DB_NAME", "scoring_engine")),
		DBUser:      getEnv("DB_USER", getEnv("LOAN_DB_USER", "postgres")),
		DBPassword:  getEnv("DB_PASSWORD", getEnv("LOAN_DB_PASSWORD", "")),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", false),

		// AWS
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:  getEnv("S3_BUCKET", ""),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),
		DashboardURL:   getEnv("DASHBOARD_URL", ""),

		// HTTP
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case HistoryMemory, HistoryRedis, HistoryPostgres:
	default:
		return fmt.Errorf("invalid HISTORY_BACKEND %q: want memory, redis or postgres", c.HistoryBackend)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("invalid HISTORY_LIMIT %d: must not be negative", c.HistoryLimit)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %d: must not be negative", c.RateLimitPerMinute)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable" // Disable SSL for local development
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + strconv.Itoa(c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// RedisKey returns the history list key for the given record kind.
func (c *Config) RedisKey(kind string) string {
	return c.RedisKeyPrefix + ":history:" + kind
}

// IsLambda reports whether the process runs inside AWS Lambda.
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as bool or returns a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
