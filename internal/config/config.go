package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Watchlist WatchlistConfig
	Calendar  CalendarConfig
	Gateway   GatewayConfig
	Backup    BackupConfig
	Scheduler SchedulerConfig
	CORS      CORSConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// WatchlistConfig holds the watch-list file location
type WatchlistConfig struct {
	Path string
}

// CalendarConfig holds the trading-calendar configuration
type CalendarConfig struct {
	HolidaysPath string
}

// GatewayConfig holds settings for the upstream market-data gateway
type GatewayConfig struct {
	Timeout time.Duration
}

// BackupConfig holds the gist backup channel credentials. Token may be
// fernet-encrypted; FernetKey decrypts it at startup when set.
type BackupConfig struct {
	GistID    string
	Token     string
	FernetKey string
}

// SchedulerConfig holds the background refresh configuration
type SchedulerConfig struct {
	RefreshCron string
	Enabled     bool
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("EASTMONEY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid EASTMONEY_TIMEOUT: %w", err)
	}

	schedulerEnabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_ENABLED: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/fundwatch.db"),
		},
		Watchlist: WatchlistConfig{
			Path: getEnv("WATCHLIST_PATH", "./data/watchlist.json"),
		},
		Calendar: CalendarConfig{
			HolidaysPath: getEnv("HOLIDAYS_PATH", "./data/holidays.json"),
		},
		Gateway: GatewayConfig{
			Timeout: timeout,
		},
		Backup: BackupConfig{
			GistID:    getEnv("GIST_ID", ""),
			Token:     getEnv("GIST_TOKEN", ""),
			FernetKey: getEnv("FERNET_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			// Every five minutes; the job itself skips outside session hours.
			RefreshCron: getEnv("REFRESH_CRON", "*/5 * * * *"),
			Enabled:     schedulerEnabled,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
