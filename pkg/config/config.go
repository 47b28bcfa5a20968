package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration for the screener
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
//
// Screening thresholds live in internal/strategyconfig (YAML), not here.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Market data providers
	Polygon PolygonConfig
	Finviz  FinvizConfig

	// Ticker universe cache
	Cache CacheConfig

	// Optional cache backends
	Redis    RedisConfig
	Database DatabaseConfig

	// Screening strategy file (empty = built-in defaults)
	StrategyFile string

	// Scheduled scan (cron with seconds)
	ScheduleCron string

	// Logging
	LogLevel  string
	LogFormat string
}

// PolygonConfig holds the catalog / daily-bar provider configuration
type PolygonConfig struct {
	APIKey    string
	BaseURL   string
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// FinvizConfig holds the fundamentals snapshot provider configuration
type FinvizConfig struct {
	BaseURL   string
	UserAgent string
	RateLimit float64
	Timeout   time.Duration
}

// CacheConfig selects where the ticker universe is cached
type CacheConfig struct {
	Backend string // file, redis, postgres
	Dir     string
	Prefix  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Polygon: PolygonConfig{
			APIKey:    getEnv("POLYGON_API_KEY", ""),
			BaseURL:   getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			RateLimit: getEnvAsFloat("POLYGON_RATE_LIMIT", 20),
			Timeout:   getEnvAsDuration("POLYGON_TIMEOUT", "30s"),
		},

		Finviz: FinvizConfig{
			BaseURL:   getEnv("FINVIZ_BASE_URL", "https://finviz.com"),
			UserAgent: getEnv("FINVIZ_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
			RateLimit: getEnvAsFloat("FINVIZ_RATE_LIMIT", 2),
			Timeout:   getEnvAsDuration("FINVIZ_TIMEOUT", "20s"),
		},

		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "file"),
			Dir:     getEnv("CACHE_DIR", ".cache"),
			Prefix:  getEnv("CACHE_PREFIX", "rs"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		ScheduleCron: getEnv("SCHEDULE_CRON", "0 30 17 * * 1-5"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return fmt.Errorf("CACHE_DIR is required for the file cache backend")
		}
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: file, redis, postgres")
	}

	if c.Polygon.RateLimit <= 0 {
		return fmt.Errorf("POLYGON_RATE_LIMIT must be > 0")
	}
	if c.Finviz.RateLimit <= 0 {
		return fmt.Errorf("FINVIZ_RATE_LIMIT must be > 0")
	}

	return nil
}

// RequirePolygonKey is checked by commands that hit the network.
// Offline commands (config show, universe show) run without a key.
func (c *Config) RequirePolygonKey() error {
	if c.Polygon.APIKey == "" {
		return fmt.Errorf("POLYGON_API_KEY is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
