package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Operator HTTP surface
	Port string

	// Storage
	StoreTimeout time.Duration

	// Price sync
	SyncInterval time.Duration
	SyncCooldown time.Duration

	// Price source
	PriceSourceBaseURL  string
	PriceSourceAppID    string
	PriceSourceCurrency string
	PriceJSONPath       string
	RequestTimeout      time.Duration

	// Sync status marker
	StatusBackend   string
	StatusFile      string
	RedisAddr       string
	StatusRedisKey  string
	StatusZoneName  string
	StatusUTCOffset time.Duration
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		PriceSourceBaseURL:  strings.TrimRight(getEnv("PRICE_SOURCE_BASE_URL", "https://steamcommunity.com"), "/"),
		PriceSourceAppID:    getEnv("PRICE_SOURCE_APP_ID", "730"),
		PriceSourceCurrency: getEnv("PRICE_SOURCE_CURRENCY", "1"),
		PriceJSONPath:       getEnv("PRICE_JSONPATH", "$.lowest_price"),

		StatusBackend:  strings.ToLower(getEnv("STATUS_BACKEND", "file")),
		StatusFile:     getEnv("STATUS_FILE", "db_last_updated.txt"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		StatusRedisKey: getEnv("STATUS_REDIS_KEY", "invtrack:sync:last_completed_at"),
		StatusZoneName: getEnv("STATUS_ZONE_NAME", "EST"),
	}

	config.StoreTimeout = getDuration("STORE_TIMEOUT", 10*time.Second)
	config.SyncInterval = getDuration("SYNC_INTERVAL", 2*time.Hour)
	config.SyncCooldown = getDuration("SYNC_COOLDOWN", 4500*time.Millisecond)
	config.RequestTimeout = getDuration("REQUEST_TIMEOUT", 15*time.Second)

	offset, err := parseOffset(getEnv("STATUS_UTC_OFFSET", "-5h"))
	if err != nil {
		return nil, err
	}
	config.StatusUTCOffset = offset

	if err := config.validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// StatusLocation returns the fixed zone the sync-status marker is rendered in.
func (c *Config) StatusLocation() *time.Location {
	return time.FixedZone(c.StatusZoneName, int(c.StatusUTCOffset.Seconds()))
}

func (c *Config) validate() error {
	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %v", c.SyncInterval)
	}
	if c.SyncCooldown < 0 {
		return fmt.Errorf("SYNC_COOLDOWN must not be negative, got %v", c.SyncCooldown)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.RequestTimeout)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %v", c.StoreTimeout)
	}
	switch c.StatusBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("invalid STATUS_BACKEND %q: must be file or redis", c.StatusBackend)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration variable, falling back to the default on bad input.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func parseOffset(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid STATUS_UTC_OFFSET %q: %w", s, err)
	}
	if d <= -24*time.Hour || d >= 24*time.Hour {
		return 0, fmt.Errorf("STATUS_UTC_OFFSET must be within a day, got %v", d)
	}
	return d, nil
}
