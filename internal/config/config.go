package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	LogDir      string // empty logs to stdout only
	Environment string
	ServiceName string
	Version     string

	StorageBackend string
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
	DBMaxConns     int

	APIKey         string // API key for authentication
	AdminUserIDs   []string
	// TrustedProxies may set X-Forwarded-For
	TrustedProxies []string

	LevelThresholds     []int64 // nil means the default curve
	DefinitionsPath     string
	DefinitionCacheSize int
	DefinitionCacheTTL  time.Duration

	EligibilityRefreshInterval time.Duration
	EventMaxRetries            int
	EventRetryDelay            time.Duration
	EventDeadLetterPath        string
	WorkerCount                int
	WorkerQueueSize            int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", DefaultLogLevel)),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", DefaultLogFormat)),
		LogDir:      getEnv("LOG_DIR", ""),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Version:     getEnv("VERSION", DefaultVersion),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres)),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBName:         getEnv("DB_NAME", DefaultDBName),
		DBMaxConns:     getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),

		APIKey:         getEnv("API_KEY", ""),
		AdminUserIDs:   getEnvAsList("ADMIN_USER_IDS"),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		DefinitionsPath:     getEnv("DEFINITIONS_PATH", ""),
		DefinitionCacheSize: getEnvAsInt("DEFINITION_CACHE_SIZE", DefaultDefinitionCacheSize),
		DefinitionCacheTTL:  getEnvAsDuration("DEFINITION_CACHE_TTL", DefaultDefinitionCacheTTL),

		EligibilityRefreshInterval: getEnvAsDuration("ELIGIBILITY_REFRESH_INTERVAL", DefaultEligibilityRefreshInterval),
		EventMaxRetries:            getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay:            getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),
		EventDeadLetterPath:        getEnv("EVENT_DEAD_LETTER_PATH", DefaultEventDeadLetterPath),
		WorkerCount:                getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize:            getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT value: %d is out of range", port)
	}
	cfg.Port = port

	thresholds, err := parseThresholds(getEnv("LEVEL_THRESHOLDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid LEVEL_THRESHOLDS value: %w", err)
	}
	cfg.LevelThresholds = thresholds

	if cfg.StorageBackend != StorageBackendPostgres && cfg.StorageBackend != StorageBackendMemory {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND value %q: must be %s or %s",
			cfg.StorageBackend, StorageBackendPostgres, StorageBackendMemory)
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// IsAdmin reports whether the user id is listed in ADMIN_USER_IDS
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt parses an integer variable, falling back to the default when
// it is unset or malformed
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses a Go duration such as "30s" or "15m"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseThresholds reads a comma separated cumulative XP table, e.g. "0,100,300,700"
func parseThresholds(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(c.DBUser),
		url.QueryEscape(c.DBPassword),
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
