package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Empty DatabaseURL, RedisURL and
// APIToken disable the matching feature.
type Config struct {
	Port               string
	LogLevel           slog.Level
	CatalogURL         string
	CatalogTimeout     time.Duration
	BreakerTimeout     time.Duration
	DatabaseURL        string
	RedisURL           string
	APIToken           string
	RateLimitPerMinute int
	// OfferSeed makes generated offers reproducible when set.
	OfferSeed *uint64

	problems []string
}

// Load reads a .env file when one exists, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:        env("PORT", "8080"),
		CatalogURL:  strings.TrimRight(env("CATALOG_URL", "http://127.0.0.1:8000"), "/"),
		DatabaseURL: env("DATABASE_URL", ""),
		RedisURL:    env("REDIS_URL", ""),
		APIToken:    env("API_TOKEN", ""),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		cfg.problems = append(cfg.problems, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	cfg.CatalogTimeout = cfg.duration("CATALOG_TIMEOUT", env("CATALOG_TIMEOUT", "10s"))
	cfg.BreakerTimeout = cfg.duration("BREAKER_TIMEOUT", env("BREAKER_TIMEOUT", "30s"))
	cfg.RateLimitPerMinute = cfg.integer("RATE_LIMIT_PER_MINUTE", env("RATE_LIMIT_PER_MINUTE", "60"))

	if s := env("OFFER_SEED", ""); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			cfg.problems = append(cfg.problems, fmt.Sprintf("OFFER_SEED must be a non-negative integer, got %q", s))
		} else {
			cfg.OfferSeed = &seed
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) duration(key, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a duration, got %q", key, value))
	}
	return d
}

func (c *Config) integer(key, value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return n
}

// Validate checks that every field is present and sane.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.problems...)

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be 1-65535, got %q", c.Port))
	}
	if u, err := url.Parse(c.CatalogURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("CATALOG_URL must be an absolute URL, got %q", c.CatalogURL))
	}
	if c.CatalogTimeout < 0 {
		errs = append(errs, "CATALOG_TIMEOUT must not be negative")
	}
	if c.BreakerTimeout < 0 {
		errs = append(errs, "BREAKER_TIMEOUT must not be negative")
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, "RATE_LIMIT_PER_MINUTE must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
