/*
config.go - Server configuration

PURPOSE:
  Collects server settings from the environment. A .env file in the
  working directory is loaded first if present; variables already set in
  the environment win over the file.

VARIABLES:
  PORT              HTTP port (default 8080)
  DB_PATH           SQLite path, ":memory:" for in-memory (default debts.db)
  LOG_LEVEL         debug | info | warn | error (default info)
  LOG_FORMAT        text | json (default text)
  CORS_ORIGINS      Comma-separated allowed origins
  LOAD_DEMO         Load the demo portfolio on startup (default false)
  REFRESH_INTERVAL  How often derived balances are recomputed, 0 disables
                    (default 6h)
  DEFAULT_WINDOW    Schedule entries kept at each end of a simulation
                    response, 0 keeps all (default 0)
  RATE_LIMIT        API requests per second per client, 0 disables
                    (default 0)
  RATE_BURST        Rate limiter bucket size (default RATE_LIMIT)
  CACHE_SIZE        In-process simulation cache entries, 0 disables
                    (default 1000)
  CACHE_TTL         Simulation cache entry lifetime (default 10m)
  REDIS_ADDR        Use Redis for the simulation cache instead
  REDIS_PASSWORD    Redis password
  REDIS_DB          Redis database number (default 0)

Command-line flags in cmd/server override these values.

SEE ALSO:
  - logging.go: Logger construction
  - cmd/server/main.go: Flag overrides
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Port            int
	DBPath          string
	LogLevel        string
	LogFormat       string
	CORSOrigins     []string
	LoadDemo        bool
	RefreshInterval time.Duration
	DefaultWindow   int
	RateLimit       float64
	RateBurst       int
	CacheSize       int
	CacheTTL        time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// Load reads the configuration. With no arguments it loads ./.env when
// present; otherwise it loads the named files. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		DBPath:          getEnvString("DB_PATH", "debts.db"),
		LogLevel:        getEnvString("LOG_LEVEL", "info"),
		LogFormat:       getEnvString("LOG_FORMAT", "text"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", defaultCORSOrigins),
		LoadDemo:        getEnvBool("LOAD_DEMO", false),
		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 6*time.Hour),
		DefaultWindow:   getEnvInt("DEFAULT_WINDOW", 0),
		RateLimit:       getEnvFloat("RATE_LIMIT", 0),
		RateBurst:       getEnvInt("RATE_BURST", 0),
		CacheSize:       getEnvInt("CACHE_SIZE", 1000),
		CacheTTL:        getEnvDuration("CACHE_TTL", 10*time.Minute),
		RedisAddr:       getEnvString("REDIS_ADDR", ""),
		RedisPassword:   getEnvString("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: DB_PATH is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("config: REFRESH_INTERVAL must not be negative")
	}
	if c.DefaultWindow < 0 {
		return fmt.Errorf("config: DEFAULT_WINDOW must not be negative")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return fmt.Errorf("config: RATE_LIMIT and RATE_BURST must not be negative")
	}
	if c.CacheSize < 0 || c.CacheTTL < 0 || c.RedisDB < 0 {
		return fmt.Errorf("config: CACHE_SIZE, CACHE_TTL and REDIS_DB must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
