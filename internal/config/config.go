package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port               int      `json:"port"`
	Environment        string   `json:"environment"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI          string        `json:"redis_uri"`
	RedisPassword     string        `json:"redis_password"`
	RedisDB           int           `json:"redis_db"`
	RedisPoolSize     int           `json:"redis_pool_size"`
	RedisMinIdleConns int           `json:"redis_min_idle_conns"`
	RedisDialTimeout  time.Duration `json:"redis_dial_timeout"`
	RedisReadTimeout  time.Duration `json:"redis_read_timeout"`
	RedisWriteTimeout time.Duration `json:"redis_write_timeout"`

	// Collection names
	ProgressCollection string `json:"mongo_progress_collection"`
	TenantCollection   string `json:"mongo_tenant_collection"`

	// Tenant configuration
	DefaultTenantID string   `json:"default_tenant_id"`
	TenantsFile     string   `json:"tenants_file"`
	TenantHosts     []string `json:"tenant_hosts"`

	// Session resolution
	SessionPollInterval  time.Duration `json:"session_poll_interval"`
	SessionMaxWait       time.Duration `json:"session_max_wait"`
	SessionStorageTTL    time.Duration `json:"session_storage_ttl"`
	SessionSubstringScan bool          `json:"session_substring_scan"`
	VendorHTTPTimeout    time.Duration `json:"vendor_http_timeout"`

	// Progress cache
	ProgressCacheTTL time.Duration `json:"progress_cache_ttl"`

	// Tracing configuration
	TracingEnabled     bool    `json:"tracing_enabled"`
	TracingEndpoint    string  `json:"tracing_endpoint"`
	TracingSampleRatio float64 `json:"tracing_sample_ratio"`

	// Index maintenance
	IndexMaintenanceInterval time.Duration `json:"index_maintenance_interval"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	pollInterval, err := time.ParseDuration(getEnvOrDefault("SESSION_POLL_INTERVAL", "500ms"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_POLL_INTERVAL: %w", err)
	}
	if pollInterval <= 0 {
		return fmt.Errorf("SESSION_POLL_INTERVAL must be positive")
	}

	maxWait, err := time.ParseDuration(getEnvOrDefault("SESSION_MAX_WAIT", "10s"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_MAX_WAIT: %w", err)
	}
	if maxWait < pollInterval {
		return fmt.Errorf("SESSION_MAX_WAIT (%s) must not be shorter than SESSION_POLL_INTERVAL (%s)", maxWait, pollInterval)
	}

	storageTTL, err := time.ParseDuration(getEnvOrDefault("SESSION_STORAGE_TTL", "24h"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_STORAGE_TTL: %w", err)
	}

	substringScan, err := strconv.ParseBool(getEnvOrDefault("SESSION_SUBSTRING_SCAN", "true"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_SUBSTRING_SCAN: %w", err)
	}

	progressCacheTTL, err := time.ParseDuration(getEnvOrDefault("PROGRESS_CACHE_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid PROGRESS_CACHE_TTL: %w", err)
	}

	tracingEnabled, err := strconv.ParseBool(getEnvOrDefault("TRACING_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("invalid TRACING_ENABLED: %w", err)
	}

	sampleRatio, err := strconv.ParseFloat(getEnvOrDefault("TRACING_SAMPLE_RATIO", "1"), 64)
	if err != nil {
		return fmt.Errorf("invalid TRACING_SAMPLE_RATIO: %w", err)
	}
	if sampleRatio < 0 || sampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1, got %v", sampleRatio)
	}

	indexInterval, err := time.ParseDuration(getEnvOrDefault("INDEX_MAINTENANCE_INTERVAL", "1h"))
	if err != nil {
		return fmt.Errorf("invalid INDEX_MAINTENANCE_INTERVAL: %w", err)
	}

	AppConfig = &Config{
		// Server configuration
		Port:               port,
		Environment:        getEnvOrDefault("ENVIRONMENT", "development"),
		CORSAllowedOrigins: parseCommaSeparatedList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "agent_portal"),

		// Redis configuration
		RedisURI:          getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:           redisDB,
		RedisPoolSize:     getEnvAsIntOrDefault("REDIS_POOL_SIZE", 10),
		RedisMinIdleConns: getEnvAsIntOrDefault("REDIS_MIN_IDLE_CONNS", 5),
		RedisDialTimeout:  getEnvAsDurationOrDefault("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:  getEnvAsDurationOrDefault("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout: getEnvAsDurationOrDefault("REDIS_WRITE_TIMEOUT", 3*time.Second),

		// Collection names
		ProgressCollection: getEnvOrDefault("MONGODB_PROGRESS_COLLECTION", "progress"),
		TenantCollection:   getEnvOrDefault("MONGODB_TENANT_COLLECTION", "tenants"),

		// Tenant configuration
		DefaultTenantID: getEnvOrDefault("DEFAULT_TENANT_ID", "default"),
		TenantsFile:     getEnvOrDefault("TENANTS_FILE", ""),
		TenantHosts:     parseCommaSeparatedList(getEnvOrDefault("DEFAULT_TENANT_HOSTS", "")),

		// Session resolution
		SessionPollInterval:  pollInterval,
		SessionMaxWait:       maxWait,
		SessionStorageTTL:    storageTTL,
		SessionSubstringScan: substringScan,
		VendorHTTPTimeout:    getEnvAsDurationOrDefault("VENDOR_HTTP_TIMEOUT", 2*time.Second),

		ProgressCacheTTL: progressCacheTTL,

		// Tracing configuration
		TracingEnabled:     tracingEnabled,
		TracingEndpoint:    getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
		TracingSampleRatio: sampleRatio,

		IndexMaintenanceInterval: indexInterval,
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the integer value of an env var, or the default
// when unset or malformed
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDurationOrDefault returns the duration value of an env var, or the
// default when unset or malformed
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseCommaSeparatedList splits a comma separated value, dropping blanks
func parseCommaSeparatedList(value string) []string {
	result := []string{}
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
