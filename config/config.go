// Package config resolves server and crawl settings from the environment,
// with an optional YAML file for the geographic locator tables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/site-pulse/backend/crawler"
	"github.com/site-pulse/backend/signals"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port    string
	DataDir string
	GinMode string

	// LocatorPath optionally points at a YAML file with city and
	// TLD-country tables; empty means the built-in EU tables.
	LocatorPath string

	Crawl crawler.Options

	RateLimitPerSecond float64
	RateLimitBurst     int
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Load reads configuration from environment variables, applying defaults
// for anything unset.
func Load() Config {
	crawl := crawler.DefaultOptions()
	crawl.MaxPages = envInt("CRAWL_MAX_PAGES", crawl.MaxPages)
	crawl.Concurrency = envInt("CRAWL_CONCURRENCY", crawl.Concurrency)
	crawl.RequestsPerSecond = envFloat("CRAWL_RPS", crawl.RequestsPerSecond)
	if secs := envInt("CRAWL_TIMEOUT_SECONDS", 0); secs > 0 {
		crawl.Timeout = time.Duration(secs) * time.Second
	}
	crawl.UserAgent = envString("CRAWL_USER_AGENT", crawl.UserAgent)

	return Config{
		Port:               envString("PORT", "8082"),
		DataDir:            envString("DATA_DIR", "data"),
		GinMode:            envString("GIN_MODE", ""),
		LocatorPath:        os.Getenv("LOCATOR_CONFIG"),
		Crawl:              crawl,
		RateLimitPerSecond: envFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 5),
	}
}

// Locator builds the geographic locator: the YAML tables when configured,
// otherwise the built-in defaults.
func (c Config) Locator() (*signals.Locator, error) {
	if c.LocatorPath == "" {
		return signals.DefaultLocator(), nil
	}
	return signals.LoadLocator(c.LocatorPath)
}
