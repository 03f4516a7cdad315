// Package config loads and validates application configuration from the
// environment, with optional .env overrides for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// University portal
	Portal PortalConfig

	// Redis-backed preference store
	Redis RedisConfig

	// Auto-refresh watcher
	Watcher WatcherConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string
}

// PortalConfig holds university-portal connection settings.
type PortalConfig struct {
	// Base URL of the portal, e.g. https://portal.example.edu/
	BaseURL string `validate:"required,url"`

	// Overall per-request timeout; a request past this resolves as the
	// uniform transport failure rather than hanging.
	RequestTimeout time.Duration `validate:"gt=0"`

	// Circuit breaker settings
	FailureThreshold int           `validate:"gte=0"`
	Cooldown         time.Duration `validate:"gte=0"`
}

// RedisConfig holds Redis connection settings for the preference store.
type RedisConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"gt=0,lte=65535"`
	Password string
	DB       int `validate:"gte=0"`

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Key namespace prefix
	KeyPrefix string

	// Disabled falls back to the in-memory store (development without
	// Redis; preferences then do not survive the process).
	Disabled bool
}

// WatcherConfig holds auto-refresh settings.
type WatcherConfig struct {
	Enabled  bool
	Interval time.Duration `validate:"gt=0"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

// Load loads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		App:           loadAppConfig(),
		Portal:        loadPortalConfig(),
		Redis:         loadRedisConfig(),
		Watcher:       loadWatcherConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	return AppConfig{
		Name:        getEnv("APP_NAME", "campus-helper"),
		Environment: env,
		Debug:       env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:     getEnv("APP_VERSION", "0.1.0"),
	}
}

func loadPortalConfig() PortalConfig {
	return PortalConfig{
		BaseURL:          getEnv("PORTAL_BASE_URL", ""),
		RequestTimeout:   getEnvDuration("PORTAL_REQUEST_TIMEOUT", 30*time.Second),
		FailureThreshold: getEnvInt("PORTAL_CB_THRESHOLD", 5),
		Cooldown:         getEnvDuration("PORTAL_CB_COOLDOWN", 30*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "campus:pref:"),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadWatcherConfig() WatcherConfig {
	return WatcherConfig{
		Enabled:  getEnvBool("WATCHER_ENABLED", true),
		Interval: getEnvDuration("WATCHER_INTERVAL", 30*time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c.Portal); err != nil {
		return fmt.Errorf("portal: %w", err)
	}
	if !c.Redis.Disabled {
		if err := v.Struct(c.Redis); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if c.Watcher.Enabled {
		if err := v.Struct(c.Watcher); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
	}
	if err := v.Struct(c.Observability); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
