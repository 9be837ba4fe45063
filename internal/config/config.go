package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Device DeviceConfig
	Sync   SyncConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// DeviceConfig describes this installation. DeviceID is injected here rather
// than read from a platform singleton so tests and multi-instance setups can
// control it.
type DeviceConfig struct {
	ID           string
	DatabasePath string
	CaptureMode  string
	GPSEnabled   bool
}

// SyncConfig holds the remote reconciliation settings. Endpoint and Token
// may be empty: the agent then records punches locally and sync is a no-op.
type SyncConfig struct {
	Endpoint          string
	Token             string
	Interval          time.Duration
	DirectoryInterval time.Duration
	Timeout           time.Duration
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	MaxFailures       int
	DuplicateWindow   time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	gpsEnabled, err := strconv.ParseBool(getEnv("GPS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid GPS_ENABLED: %w", err)
	}

	config.Device = DeviceConfig{
		ID:           getEnv("DEVICE_ID", ""),
		DatabasePath: getEnv("DB_PATH", "fieldclock.db"),
		CaptureMode:  getEnv("CAPTURE_MODE", "QR"),
		GPSEnabled:   gpsEnabled,
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	directoryInterval, err := time.ParseDuration(getEnv("DIRECTORY_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIRECTORY_INTERVAL: %w", err)
	}
	syncTimeout, err := time.ParseDuration(getEnv("SYNC_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEOUT: %w", err)
	}
	backoffInitial, err := time.ParseDuration(getEnv("SYNC_BACKOFF_INITIAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_BACKOFF_INITIAL: %w", err)
	}
	backoffMax, err := time.ParseDuration(getEnv("SYNC_BACKOFF_MAX", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_BACKOFF_MAX: %w", err)
	}
	maxFailures, err := strconv.Atoi(getEnv("SYNC_MAX_FAILURES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_MAX_FAILURES: %w", err)
	}
	duplicateWindow, err := time.ParseDuration(getEnv("DUPLICATE_WINDOW", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DUPLICATE_WINDOW: %w", err)
	}

	config.Sync = SyncConfig{
		Endpoint:          getEnv("SYNC_ENDPOINT", ""),
		Token:             getEnv("SYNC_TOKEN", ""),
		Interval:          syncInterval,
		DirectoryInterval: directoryInterval,
		Timeout:           syncTimeout,
		BackoffInitial:    backoffInitial,
		BackoffMax:        backoffMax,
		MaxFailures:       maxFailures,
		DuplicateWindow:   duplicateWindow,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Device.ID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if c.Device.DatabasePath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Sync.BackoffInitial <= 0 {
		return fmt.Errorf("SYNC_BACKOFF_INITIAL must be positive")
	}
	if c.Sync.BackoffMax < c.Sync.BackoffInitial {
		return fmt.Errorf("SYNC_BACKOFF_MAX must not be below SYNC_BACKOFF_INITIAL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
