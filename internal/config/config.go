package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	StoreDriver       string
	DBDSN             string
	DBAutoMigrate     bool
	SeedFile          string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration

	// Open market
	OpenMarketExclusivity time.Duration

	// Association cache (disabled when RedisURL is empty)
	RedisURL            string
	AssociationCacheTTL time.Duration

	// Per-account request limits on the company/vendor API groups
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	return FromEnv()
}

// FromEnv builds the configuration from the current process environment only.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Store driver (default: postgres)
	cfg.StoreDriver = getEnv("STORE_DRIVER", StoreDriverPostgres)
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		// Database DSN is required
		cfg.DBDSN = os.Getenv("DB_DSN")
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case StoreDriverMemory:
		if cfg.IsProduction {
			return nil, fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
		cfg.SeedFile = getEnv("SEED_FILE", "")
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %q or %q", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	cfg.DBAutoMigrate, err = getEnvAsBool("DB_AUTO_MIGRATE", false)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_AUTO_MIGRATE: %w", err)
	}

	// JWT secret is required for verifying tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}

	// Partner-only window after a booking is released to the open market
	cfg.OpenMarketExclusivity, err = getEnvAsDuration("OPEN_MARKET_EXCLUSIVITY", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid OPEN_MARKET_EXCLUSIVITY: %w", err)
	}
	if cfg.OpenMarketExclusivity < 0 {
		return nil, fmt.Errorf("OPEN_MARKET_EXCLUSIVITY must not be negative")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.AssociationCacheTTL, err = getEnvAsDuration("ASSOCIATION_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid ASSOCIATION_CACHE_TTL: %w", err)
	}

	cfg.RateLimitPerMinute, err = getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}
	cfg.RateLimitBurst, err = getEnvAsInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid bool: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
