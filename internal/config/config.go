package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Transaction store
	StoreURL        string
	StoreAPIKey     string
	StoreServiceKey string

	// Detection
	RecurringLookbackDays   int
	RecurringMinOccurrences int
	TransferLookbackDays    int
	TransferTolerance       float64
	TransferMaxDayGap       int
	SweepConcurrency        int
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		CacheTTL: getEnvDuration("CACHE_TTL", 1*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		StoreURL:        getEnv("STORE_URL", ""),
		StoreAPIKey:     getEnv("STORE_API_KEY", ""),
		StoreServiceKey: getEnv("STORE_SERVICE_KEY", ""),

		RecurringLookbackDays:   getEnvInt("RECURRING_LOOKBACK_DAYS", 180),
		RecurringMinOccurrences: getEnvInt("RECURRING_MIN_OCCURRENCES", 4),
		TransferLookbackDays:    getEnvInt("TRANSFER_LOOKBACK_DAYS", 30),
		TransferTolerance:       getEnvFloat("TRANSFER_AMOUNT_TOLERANCE", 0.50),
		TransferMaxDayGap:       getEnvInt("TRANSFER_MAX_DAY_GAP", 2),
		SweepConcurrency:        getEnvInt("SWEEP_CONCURRENCY", 8),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
