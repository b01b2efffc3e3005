package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB (payment ledger)
	MongoURI    string
	MongoDbName string

	// Redis (wizard/payment sessions, caches, task queue)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT (session cookie verification only; auth itself is the auth API's job)
	JwtSecret string

	// Server
	ApiPort        string
	ServiceApiPort string

	// Upstream marketplace API
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	// M-Pesa gateway
	MpesaBaseURL    string
	MpesaTimeout    time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int

	// Session lifetimes and caches
	WizardSessionTTL     time.Duration
	PaymentSessionTTL    time.Duration
	BlockedDatesCacheTTL time.Duration
	SearchSessionTTL     time.Duration

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getDurationSeconds := func(key, defaultValue string) (time.Duration, error) {
		seconds, parseErr := strconv.ParseInt(getEnv(key, defaultValue), 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, parseErr)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "linknamali_engine")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.UpstreamBaseURL, err = getRequiredEnv("UPSTREAM_BASE_URL")
	if err != nil {
		return nil, err
	}
	// The STK push gateway usually sits behind the same host; default to it.
	cfg.MpesaBaseURL = getEnv("MPESA_BASE_URL", cfg.UpstreamBaseURL)
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "bookings@linknamali.ke")
	cfg.AppName = getEnv("APP_NAME", "LinknaMali")

	// Load numeric and time duration values with defaults and parsing
	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.UpstreamTimeout, err = getDurationSeconds("UPSTREAM_TIMEOUT_SECONDS", "30")
	if err != nil {
		return nil, err
	}

	cfg.MpesaTimeout, err = getDurationSeconds("MPESA_TIMEOUT_SECONDS", "30")
	if err != nil {
		return nil, err
	}

	cfg.PollInterval, err = getDurationSeconds("MPESA_POLL_INTERVAL_SECONDS", "5")
	if err != nil {
		return nil, err
	}

	cfg.PollMaxAttempts, err = strconv.Atoi(getEnv("MPESA_POLL_MAX_ATTEMPTS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid MPESA_POLL_MAX_ATTEMPTS: %w", err)
	}

	cfg.WizardSessionTTL, err = getDurationSeconds("WIZARD_SESSION_TTL_SECONDS", "3600")
	if err != nil {
		return nil, err
	}

	cfg.PaymentSessionTTL, err = getDurationSeconds("PAYMENT_SESSION_TTL_SECONDS", "900")
	if err != nil {
		return nil, err
	}

	cfg.BlockedDatesCacheTTL, err = getDurationSeconds("BLOCKED_DATES_CACHE_TTL_SECONDS", "60")
	if err != nil {
		return nil, err
	}

	cfg.SearchSessionTTL, err = getDurationSeconds("SEARCH_SESSION_TTL_SECONDS", "1800")
	if err != nil {
		return nil, err
	}

	// Rate Limiting
	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}
