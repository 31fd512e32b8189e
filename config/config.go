package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the SkySafe reporting service
type Config struct {
	// Server configuration
	Port           string
	Env            string
	AllowedOrigins []string
	TrustedProxies []string

	// Database configuration
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBPingMaxWait     time.Duration

	// Authentication
	JWTSecret string
	TokenTTL  time.Duration

	// Attachments
	UploadDir         string
	UploadURLPrefix   string
	MaxUploadBytes    int64
	ImageMaxDimension int

	// Rate limits, per client IP
	SubmitRatePerMinute int
	LoginRatePerMinute  int

	// Event feed, disabled when AMQPURL is empty
	AMQPURL          string
	RabbitMQExchange string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies: getListEnv("TRUSTED_PROXIES", nil),

		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBUser:            getEnv("DB_USER", "skysafe"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "skysafe"),
		DBMaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBPingMaxWait:     getDurationEnv("DB_PING_MAX_WAIT", 60*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getDurationEnv("TOKEN_TTL", 24*time.Hour),

		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		UploadURLPrefix:   getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		MaxUploadBytes:    int64(getIntEnv("MAX_UPLOAD_BYTES", 10<<20)),
		ImageMaxDimension: getIntEnv("IMAGE_MAX_DIMENSION", 1600),

		SubmitRatePerMinute: getIntEnv("SUBMIT_RATE_PER_MINUTE", 30),
		LoginRatePerMinute:  getIntEnv("LOGIN_RATE_PER_MINUTE", 10),

		AMQPURL:          getEnv("AMQP_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "skysafe.issues"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR must be set"))
	}
	if !strings.HasPrefix(c.UploadURLPrefix, "/") {
		errs = append(errs, fmt.Errorf("UPLOAD_URL_PREFIX must start with '/', got %q", c.UploadURLPrefix))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated variable, dropping empty entries
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
