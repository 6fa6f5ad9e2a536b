package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Signal Console application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Geo        GeoConfig
	Dashboard  DashboardConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClickHouseConfig configures the optional event warehouse.
type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	User     string
	Password string
	MaxConns int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled     bool
	IngestRPS   float64
	IngestBurst int
	MgmtRPS     float64
	MgmtBurst   int
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

// GeoConfig configures GeoIP enrichment of ingested web events.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

// DashboardConfig holds analytics defaults.
type DashboardConfig struct {
	// Timezone used for calendar bucket alignment. Buckets are
	// deterministic per configured zone, never the ambient process
	// zone.
	Timezone string
	// CacheTTL is how long computed dashboard payloads stay in Redis.
	CacheTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("SIGNAL_CONSOLE_HTTP_ADDR", ":8080"),
			Env:             getEnv("SIGNAL_CONSOLE_ENV", "development"),
			ShutdownTimeout: getDurationEnv("SIGNAL_CONSOLE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("SIGNAL_CONSOLE_DB_HOST", "localhost"),
			Port:     getIntEnv("SIGNAL_CONSOLE_DB_PORT", 5432),
			User:     getEnv("SIGNAL_CONSOLE_DB_USER", "signalconsole"),
			Password: getEnv("SIGNAL_CONSOLE_DB_PASSWORD", "signalconsole_secret"),
			DBName:   getEnv("SIGNAL_CONSOLE_DB_NAME", "signalconsole"),
			SSLMode:  getEnv("SIGNAL_CONSOLE_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("SIGNAL_CONSOLE_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("SIGNAL_CONSOLE_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("SIGNAL_CONSOLE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("SIGNAL_CONSOLE_REDIS_PASSWORD", ""),
			DB:       getIntEnv("SIGNAL_CONSOLE_REDIS_DB", 0),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  getBoolEnv("SIGNAL_CONSOLE_CLICKHOUSE_ENABLED", false),
			Addr:     getEnv("SIGNAL_CONSOLE_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("SIGNAL_CONSOLE_CLICKHOUSE_DB", "signalconsole"),
			User:     getEnv("SIGNAL_CONSOLE_CLICKHOUSE_USER", "default"),
			Password: getEnv("SIGNAL_CONSOLE_CLICKHOUSE_PASSWORD", ""),
			MaxConns: getIntEnv("SIGNAL_CONSOLE_CLICKHOUSE_MAX_CONNS", 10),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("SIGNAL_CONSOLE_AUTH_ENABLED", false),
			MasterKey: getEnv("SIGNAL_CONSOLE_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("SIGNAL_CONSOLE_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/events/ingest"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:     getBoolEnv("SIGNAL_CONSOLE_RATE_LIMIT_ENABLED", true),
			IngestRPS:   getFloatEnv("SIGNAL_CONSOLE_RATE_LIMIT_INGEST_RPS", 1000),
			IngestBurst: getIntEnv("SIGNAL_CONSOLE_RATE_LIMIT_INGEST_BURST", 100),
			MgmtRPS:     getFloatEnv("SIGNAL_CONSOLE_RATE_LIMIT_MGMT_RPS", 100),
			MgmtBurst:   getIntEnv("SIGNAL_CONSOLE_RATE_LIMIT_MGMT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("SIGNAL_CONSOLE_LOG_LEVEL", "info"),
			Format: getEnv("SIGNAL_CONSOLE_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("SIGNAL_CONSOLE_METRICS_ENABLED", true),
			Path:    getEnv("SIGNAL_CONSOLE_METRICS_PATH", "/metrics"),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("SIGNAL_CONSOLE_GEO_ENABLED", false),
			DatabasePath: getEnv("SIGNAL_CONSOLE_GEO_DB_PATH", "/app/data/GeoLite2-Country.mmdb"),
		},
		Dashboard: DashboardConfig{
			Timezone: getEnv("SIGNAL_CONSOLE_DASHBOARD_TZ", "UTC"),
			CacheTTL: getDurationEnv("SIGNAL_CONSOLE_DASHBOARD_CACHE_TTL", 60*time.Second),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("SIGNAL_CONSOLE_API_KEY_MASTER is required when auth is enabled")
	}
	if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
		return fmt.Errorf("invalid SIGNAL_CONSOLE_DASHBOARD_TZ: %w", err)
	}
	return nil
}

// Location resolves the configured dashboard timezone. Validate has
// already checked it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dashboard.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
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
