// Package config provides configuration management for the catalog cache service.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Database Configuration:
//   - DATABASE_URL: PostgreSQL connection string (required)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (empty: fall back to REDIS_URL)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - REDIS_URL: Redis connection URL, used when REDIS_ADDRESS is unset.
//     When both are empty the remote cache tier is disabled and only the
//     in-process tier is active.
//
// Cache Configuration:
//   - CACHE_ENABLED: Global cache switch (default: true)
//   - CACHE_TTL_CATEGORY_ADDONS: TTL in seconds for per-category addon reads (default: 300)
//   - CACHE_TTL_ADDON_GROUPS: TTL in seconds for addon group listings (default: 600)
//   - CACHE_TTL_ADDONS: TTL in seconds for addon reads (default: 900)
//   - CACHE_MAX_MEMORY_ENTRIES: Memory tier entry ceiling (default: 1000)
//
// Warm-up:
//   - WARMUP_SCHEDULE: Optional cron expression for periodic cache warm-up
//   - WARMUP_CATEGORY_IDS: Comma-separated category IDs to warm
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration values for the catalog cache service.
// Load it with Load() and validate with Validate() before use. The
// configuration is immutable after construction.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Database configuration
	DatabaseURL string // PostgreSQL connection string

	// Redis configuration for the remote cache tier
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
	RedisURL      string // Connection URL fallback when RedisAddress is unset

	// Cache configuration
	CacheEnabled      bool   // Global cache on/off switch
	TTLCategoryAddons int    // Seconds; category addon reads
	TTLAddonGroups    int    // Seconds; addon group listings
	TTLAddons         int    // Seconds; addon reads
	MaxMemoryEntries  int    // Memory tier entry ceiling
	WarmupSchedule    string // Optional cron expression
	WarmupCategoryIDs string // Comma-separated category IDs
}

// Load creates a new Config instance with values loaded from environment
// variables. Call Validate() on the result before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
		RedisURL:      getEnv("REDIS_URL", ""),

		CacheEnabled:      getBoolEnv("CACHE_ENABLED", true),
		TTLCategoryAddons: getIntEnv("CACHE_TTL_CATEGORY_ADDONS", 300),
		TTLAddonGroups:    getIntEnv("CACHE_TTL_ADDON_GROUPS", 600),
		TTLAddons:         getIntEnv("CACHE_TTL_ADDONS", 900),
		MaxMemoryEntries:  getIntEnv("CACHE_MAX_MEMORY_ENTRIES", 1000),
		WarmupSchedule:    getEnv("WARMUP_SCHEDULE", ""),
		WarmupCategoryIDs: getEnv("WARMUP_CATEGORY_IDS", ""),
	}
}

// RemoteCacheConfigured reports whether any remote tier configuration is present.
// When false the service runs on the memory tier alone.
func (c *Config) RemoteCacheConfigured() bool {
	return c.RedisAddress != "" || c.RedisURL != ""
}

// WarmupIDs parses WarmupCategoryIDs into int64 identifiers.
func (c *Config) WarmupIDs() []int64 {
	if c.WarmupCategoryIDs == "" {
		return nil
	}
	parts := strings.Split(c.WarmupCategoryIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid. The application should call
// this after Load() and before starting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.RemoteCacheConfigured() {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.TTLCategoryAddons < 1 {
		return fmt.Errorf("CACHE_TTL_CATEGORY_ADDONS must be a positive number of seconds")
	}
	if c.TTLAddonGroups < 1 {
		return fmt.Errorf("CACHE_TTL_ADDON_GROUPS must be a positive number of seconds")
	}
	if c.TTLAddons < 1 {
		return fmt.Errorf("CACHE_TTL_ADDONS must be a positive number of seconds")
	}
	if c.MaxMemoryEntries < 1 {
		return fmt.Errorf("CACHE_MAX_MEMORY_ENTRIES must be a positive number")
	}

	if c.WarmupSchedule != "" {
		if _, err := cron.ParseStandard(c.WarmupSchedule); err != nil {
			return fmt.Errorf("WARMUP_SCHEDULE must be a valid cron expression: %v", err)
		}
	}

	if c.WarmupCategoryIDs != "" {
		for _, part := range strings.Split(c.WarmupCategoryIDs, ",") {
			if _, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err != nil {
				return fmt.Errorf("WARMUP_CATEGORY_IDS must be a comma-separated list of numeric IDs")
			}
		}
	}

	return nil
}
