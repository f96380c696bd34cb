package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Listing site
	FeaturedURL string
	SearchURL   string
	SiteOrigin  string

	// Fetch retry policy
	FetchMaxRetries int
	FetchBaseDelay  time.Duration
	FetchTimeout    time.Duration

	// Alert checking
	AlertPacing   time.Duration
	CheckInterval time.Duration

	// Storage
	DatabasePath string

	// Redis configuration, empty RedisAddr disables trigger publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration, empty MemcacheAddr disables trigger de-duplication
	MemcacheAddr    string
	TriggerDedupTTL time.Duration

	// Environment
	Environment string

	// loadErrs holds the settings LoadConfig could not parse
	loadErrs []error
}

// maxFetchRetries bounds FETCH_MAX_RETRIES; the backoff doubles on every attempt
const maxFetchRetries = 10

// LoadConfig loads the configuration from environment variables with defaults.
// Values that do not parse are reported by Validate.
func LoadConfig() *Config {
	env := &envInts{}

	return &Config{
		FeaturedURL:          getEnv("FEATURED_URL", "https://www.hardgamers.com.ar/deals?page=1"),
		SearchURL:            getEnv("SEARCH_URL", "https://www.hardgamers.com.ar/search?text={query}"),
		SiteOrigin:           getEnv("SITE_ORIGIN", "https://www.hardgamers.com.ar"),
		FetchMaxRetries:      env.get("FETCH_MAX_RETRIES", 3),
		FetchBaseDelay:       time.Duration(env.get("FETCH_BASE_DELAY_MS", 1000)) * time.Millisecond,
		FetchTimeout:         time.Duration(env.get("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,
		AlertPacing:          time.Duration(env.get("ALERT_PACING_MS", 1000)) * time.Millisecond,
		CheckInterval:        time.Duration(env.get("CHECK_INTERVAL_SECONDS", 3600)) * time.Second,
		DatabasePath:         getEnv("DATABASE_PATH", "pricewatcher.db"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              env.get("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "pricewatch:triggers"),
		RedisStreamMaxLength: env.get("REDIS_STREAM_MAX_LENGTH", 1000),
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		TriggerDedupTTL:      time.Duration(env.get("TRIGGER_DEDUP_TTL_SECONDS", 86400)) * time.Second,
		Environment:          getEnv("PRICEWATCH_ENVIRONMENT", "development"),
		loadErrs:             env.errs,
	}
}

// Validate checks the configuration and fails fast on anything the core cannot run with
func (c *Config) Validate() error {
	if len(c.loadErrs) > 0 {
		return apperrors.NewConfiguration("invalid integer setting", errors.Join(c.loadErrs...))
	}

	for name, value := range map[string]string{
		"FEATURED_URL": c.FeaturedURL,
		"SEARCH_URL":   strings.ReplaceAll(c.SearchURL, "{query}", "q"),
		"SITE_ORIGIN":  c.SiteOrigin,
	} {
		if err := validateURL(name, value); err != nil {
			return err
		}
	}

	if c.FetchMaxRetries < 1 || c.FetchMaxRetries > maxFetchRetries {
		return apperrors.NewConfiguration(fmt.Sprintf("FETCH_MAX_RETRIES must be between 1 and %d, got %d", maxFetchRetries, c.FetchMaxRetries), nil)
	}
	if c.FetchBaseDelay < 0 {
		return apperrors.NewConfiguration("FETCH_BASE_DELAY_MS must not be negative", nil)
	}
	if c.FetchTimeout <= 0 {
		return apperrors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.AlertPacing < 0 {
		return apperrors.NewConfiguration("ALERT_PACING_MS must not be negative", nil)
	}
	if c.CheckInterval <= 0 {
		return apperrors.NewConfiguration("CHECK_INTERVAL_SECONDS must be positive", nil)
	}
	if c.DatabasePath == "" {
		return apperrors.NewConfiguration("DATABASE_PATH is required", nil)
	}

	return nil
}

func validateURL(name, value string) error {
	if value == "" {
		return apperrors.NewConfiguration(name+" is required", nil)
	}

	u, err := url.Parse(value)
	if err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("%s is not a valid URL", name), err)
	}
	if u.Scheme == "" || u.Host == "" {
		return apperrors.NewConfiguration(fmt.Sprintf("%s must be an absolute URL, got %q", name, value), nil)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// envInts reads integer environment variables and collects the ones that fail to parse
type envInts struct {
	errs []error
}

// get returns the integer value of key, or defaultValue when it is unset
func (e *envInts) get(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return defaultValue
	}
	return value
}
