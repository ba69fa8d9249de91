package config_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/debt-engine/config"
)

var keys = []string{
	"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS",
	"LOAD_DEMO", "REFRESH_INTERVAL", "DEFAULT_WINDOW", "RATE_LIMIT", "RATE_BURST",
	"CACHE_SIZE", "CACHE_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
}

// unsetEnv clears the config variables for the duration of the test.
// t.Setenv("X", "") is not enough: godotenv skips keys that are present.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		prev, ok := os.LookupEnv(k)
		require.NoError(t, os.Unsetenv(k))
		k := k
		t.Cleanup(func() {
			if ok {
				os.Setenv(k, prev)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debts.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.False(t, cfg.LoadDemo)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 0, cfg.DefaultWindow)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOAD_DEMO", "true")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("DEFAULT_WINDOW", "12")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("RATE_BURST", "10")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.LoadDemo)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 12, cfg.DefaultWindow)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_DotEnvFile_EnvironmentWins(t *testing.T) {
	unsetEnv(t)

	// GIVEN: a .env file and one variable already in the environment
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9191\nLOG_FORMAT=json\n"), 0o600))
	t.Setenv("LOG_FORMAT", "text")

	// WHEN
	cfg, err := config.Load(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	unsetEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("LOAD_DEMO", "maybe")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.LoadDemo)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{Port: 8080, DBPath: "x.db", LogFormat: "json"}
	}
	cases := map[string]func(c *config.Config){
		"port zero":        func(c *config.Config) { c.Port = 0 },
		"port too high":    func(c *config.Config) { c.Port = 70000 },
		"empty db path":    func(c *config.Config) { c.DBPath = "" },
		"bad log format":   func(c *config.Config) { c.LogFormat = "xml" },
		"negative refresh": func(c *config.Config) { c.RefreshInterval = -time.Second },
		"negative window":  func(c *config.Config) { c.DefaultWindow = -1 },
		"negative rate":    func(c *config.Config) { c.RateLimit = -1 },
		"negative burst":   func(c *config.Config) { c.RateBurst = -1 },
		"negative cache":   func(c *config.Config) { c.CacheSize = -1 },
		"negative ttl":     func(c *config.Config) { c.CacheTTL = -time.Second },
	}

	base := valid()
	require.NoError(t, base.Validate())

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "account_id", "acct-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "acct-1", line["account_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, config.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, config.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, config.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, config.ParseLevel("nonsense"))
}
