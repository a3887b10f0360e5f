package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheS3       = "s3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Logging configuration
	LogFormat string
	LogLevel  string

	// Backend API configuration
	BackendURL         string
	BackendToken       string
	BackendTimeout     time.Duration
	BackendMaxAttempts int
	RefreshInterval    time.Duration

	// Snapshot cache configuration
	CacheBackend string
	SQLitePath   string
	PostgresURL  string

	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
	S3Prefix          string

	// Aggregation configuration
	LastVisitMode  string
	Timezone       string
	CurrencySuffix string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	loadDotEnv()

	config := &Config{
		// Server configuration
		Port:         getEnvInt("PORT", 8080),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 30*time.Second),

		// Logging configuration
		LogFormat: strings.ToLower(getEnvString("LOG_FORMAT", "json")),
		LogLevel:  strings.ToLower(getEnvString("LOG_LEVEL", "info")),

		// Backend API configuration
		BackendURL:         os.Getenv("BACKEND_URL"),
		BackendToken:       os.Getenv("BACKEND_TOKEN"),
		BackendTimeout:     getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendMaxAttempts: getEnvInt("BACKEND_MAX_ATTEMPTS", 2),
		RefreshInterval:    getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),

		// Snapshot cache configuration
		CacheBackend: strings.ToLower(getEnvString("CACHE_BACKEND", CacheMemory)),
		SQLitePath:   getEnvString("SQLITE_PATH", "snapshot-cache.db"),
		PostgresURL:  os.Getenv("POSTGRES_DB_URL"),

		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),
		S3Prefix:          getEnvString("S3_PREFIX", "dashboard/cache"),

		// Aggregation configuration
		LastVisitMode:  getEnvString("LAST_VISIT_MODE", "now"),
		Timezone:       getEnvString("TIMEZONE", "Local"),
		CurrencySuffix: getEnvString("CURRENCY_SUFFIX", "F CFA"),
	}

	validateConfig(config)

	return config, nil
}

// loadDotEnv loads .env from the project root, falling back to the working directory
func loadDotEnv() {
	execPath, err := os.Executable()
	if err != nil {
		slog.Warn("could not determine executable path", "error", err)
	}

	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(execPath)))
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Info("no .env file found, using environment variables")
		} else {
			slog.Info("loaded environment variables from current directory .env file")
		}
	} else {
		slog.Info("loaded environment variables", "path", envPath)
	}
}

// Location resolves Timezone, falling back to the local zone when it is unknown
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown timezone, using local time", "timezone", c.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	if config.BackendURL == "" {
		slog.Warn("no BACKEND_URL provided, snapshots and remote stats will only come from the cache")
	}

	if config.BackendMaxAttempts < 1 {
		slog.Warn("BACKEND_MAX_ATTEMPTS must be at least 1, using 2", "value", config.BackendMaxAttempts)
		config.BackendMaxAttempts = 2
	}

	switch config.CacheBackend {
	case CacheMemory, CacheSQLite:
	case CachePostgres:
		if config.PostgresURL == "" {
			slog.Warn("CACHE_BACKEND is postgres but POSTGRES_DB_URL is empty")
		}
	case CacheS3:
		if config.S3Bucket == "" || config.S3AccessKeyID == "" || config.S3AccessKeySecret == "" {
			slog.Warn("CACHE_BACKEND is s3 but bucket or credentials are missing")
		}
	default:
		slog.Warn("unknown CACHE_BACKEND, using memory", "value", config.CacheBackend)
		config.CacheBackend = CacheMemory
	}

	switch config.LogFormat {
	case "json", "text":
	default:
		slog.Warn("unknown LOG_FORMAT, using json", "value", config.LogFormat)
		config.LogFormat = "json"
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration value, using default", "key", key, "value", valueStr, "default", defaultValue)
		return defaultValue
	}

	return value
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
