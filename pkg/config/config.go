package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration read from the environment.
// Experiment settings (tickers, analysts, model) live in internal/expconfig.
// ⭐ SSOT: every os.Getenv call lives in this file
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data
	MarketData MarketDataConfig

	// LLM providers
	LLM LLMConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
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

// MarketDataConfig selects and configures the price/news provider
type MarketDataConfig struct {
	Provider         string // alphavantage, yahoo
	AlphaVantageKey  string
	AlphaVantageURL  string
	RatePerMinute    int
	Timeout          time.Duration
	CacheTTL         time.Duration
	BreakerFailures  int
	BreakerOpenDelay time.Duration
}

// LLMConfig holds credentials for the inference providers
type LLMConfig struct {
	OpenAIKey     string
	OpenAIBaseURL string
	DeepSeekKey   string
	MaxTokens     int
	Timeout       time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		MarketData: MarketDataConfig{
			Provider:         getEnv("MARKET_DATA_PROVIDER", "alphavantage"),
			AlphaVantageKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
			AlphaVantageURL:  getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
			RatePerMinute:    getEnvAsInt("MARKET_DATA_RATE_PER_MIN", 75),
			Timeout:          getEnvAsDuration("MARKET_DATA_TIMEOUT", "30s"),
			CacheTTL:         getEnvAsDuration("MARKET_DATA_CACHE_TTL", "24h"),
			BreakerFailures:  getEnvAsInt("MARKET_DATA_BREAKER_FAILURES", 5),
			BreakerOpenDelay: getEnvAsDuration("MARKET_DATA_BREAKER_OPEN", "1m"),
		},

		LLM: LLMConfig{
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			DeepSeekKey:   getEnv("DEEPSEEK_API_KEY", ""),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 2048),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", "2m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.MarketData.Provider {
	case "alphavantage", "yahoo":
	default:
		return fmt.Errorf("MARKET_DATA_PROVIDER must be one of: alphavantage, yahoo")
	}

	if c.MarketData.RatePerMinute <= 0 {
		return fmt.Errorf("MARKET_DATA_RATE_PER_MIN must be > 0")
	}

	return nil
}

// loadEnvFile tries to load .env from the working directory or next to the binary
func loadEnvFile() {
	paths := []string{".env"}

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
