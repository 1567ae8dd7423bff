package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Lumea dashboard backend.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Geo       GeoConfig
	Rollup    RollupConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GeoConfig configures GeoIP lookup on the click ingest path.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

// RollupConfig configures the analytics rollup engine. Timezone sets
// the day-bucket boundary for the 7d/30d ranges instead of relying on
// host-process local time.
type RollupConfig struct {
	Timezone string
}

// Location resolves the configured timezone, falling back to UTC.
func (r RollupConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("LUMEA_HTTP_ADDR", ":8080"),
			Env:             getEnv("LUMEA_ENV", "development"),
			ShutdownTimeout: getDurationEnv("LUMEA_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("LUMEA_DB_HOST", "localhost"),
			Port:     getIntEnv("LUMEA_DB_PORT", 5432),
			User:     getEnv("LUMEA_DB_USER", "lumea"),
			Password: getEnv("LUMEA_DB_PASSWORD", "lumea_secret"),
			DBName:   getEnv("LUMEA_DB_NAME", "lumea"),
			SSLMode:  getEnv("LUMEA_DB_SSLMODE", "disable"),
			MaxConns:        getIntEnv("LUMEA_DB_MAX_CONNS", 25),
			MinConns:        getIntEnv("LUMEA_DB_MIN_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("LUMEA_DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getDurationEnv("LUMEA_DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			ConnectTimeout:  getDurationEnv("LUMEA_DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("LUMEA_REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("LUMEA_REDIS_PASSWORD", ""),
			DB:           getIntEnv("LUMEA_REDIS_DB", 0),
			DialTimeout:  getDurationEnv("LUMEA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("LUMEA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("LUMEA_REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     getIntEnv("LUMEA_REDIS_POOL_SIZE", 50),
			MinIdleConns: getIntEnv("LUMEA_REDIS_MIN_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("LUMEA_AUTH_ENABLED", true),
			MasterKey: getEnv("LUMEA_API_KEY", ""),
			SkipPaths: getSliceEnv("LUMEA_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/r/"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("LUMEA_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("LUMEA_RATE_LIMIT_RPS", 100),
			Burst:   getIntEnv("LUMEA_RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("LUMEA_LOG_LEVEL", "info"),
			Format: getEnv("LUMEA_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("LUMEA_METRICS_ENABLED", true),
			Path:    getEnv("LUMEA_METRICS_PATH", "/metrics"),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("LUMEA_GEO_ENABLED", false),
			DatabasePath: getEnv("LUMEA_GEO_DB_PATH", "/app/data/GeoLite2-Country.mmdb"),
		},
		Rollup: RollupConfig{
			Timezone: getEnv("LUMEA_ROLLUP_TIMEZONE", "Europe/Paris"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("LUMEA_API_KEY is required when auth is enabled")
	}
	if _, err := c.Rollup.Location(); err != nil {
		return fmt.Errorf("invalid LUMEA_ROLLUP_TIMEZONE: %w", err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
