package config

import (
	"testing"
	"time"

	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://www.hardgamers.com.ar", config.SiteOrigin)
	assert.Equal(t, 3, config.FetchMaxRetries)
	assert.Equal(t, time.Second, config.FetchBaseDelay)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, time.Second, config.AlertPacing)
	assert.Equal(t, "pricewatcher.db", config.DatabasePath)
	assert.Empty(t, config.RedisAddr)
	assert.Empty(t, config.MemcacheAddr)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("FETCH_BASE_DELAY_MS", "250")
	t.Setenv("CHECK_INTERVAL_SECONDS", "30")
	t.Setenv("SEARCH_URL", "https://example.com/find?q={query}")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 5, config.FetchMaxRetries)
	assert.Equal(t, 250*time.Millisecond, config.FetchBaseDelay)
	assert.Equal(t, 30*time.Second, config.CheckInterval)
	assert.Equal(t, "https://example.com/find?q={query}", config.SearchURL)
}

func TestValidateReportsUnparseableNumbers(t *testing.T) {
	t.Setenv("FETCH_MAX_RETRIES", "three")
	t.Setenv("ALERT_PACING_MS", "1s")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_MAX_RETRIES")
	assert.Contains(t, err.Error(), "ALERT_PACING_MS")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeConfiguration, appErr.Type)
}

func TestLoadConfigTrimsNumbers(t *testing.T) {
	t.Setenv("FETCH_MAX_RETRIES", " 4 ")

	cfg := LoadConfig()
	assert.Equal(t, 4, cfg.FetchMaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing featured url", func(c *Config) { c.FeaturedURL = "" }},
		{"relative search url", func(c *Config) { c.SearchURL = "/search?text={query}" }},
		{"bad origin", func(c *Config) { c.SiteOrigin = "://nope" }},
		{"zero retries", func(c *Config) { c.FetchMaxRetries = 0 }},
		{"too many retries", func(c *Config) { c.FetchMaxRetries = maxFetchRetries + 1 }},
		{"negative delay", func(c *Config) { c.FetchBaseDelay = -time.Second }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"negative pacing", func(c *Config) { c.AlertPacing = -time.Millisecond }},
		{"zero check interval", func(c *Config) { c.CheckInterval = 0 }},
		{"missing database", func(c *Config) { c.DatabasePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)

			var appErr *apperrors.AppError
			if assert.ErrorAs(t, err, &appErr) {
				assert.Equal(t, apperrors.ErrorTypeConfiguration, appErr.Type)
			}
		})
	}
}
