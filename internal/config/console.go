package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultSearchDebounce = time.Second
	DefaultCacheGCTime    = 5 * time.Minute
)

// Console configures the console client.
type Console struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	FetchRetries   int
	SessionPath    string
	PageSize       int
	SearchDebounce time.Duration
	CacheStaleTime time.Duration
	CacheGCTime    time.Duration
	AppEnv         string
	LogLevel       string

	parseErrs []error
}

func (c Console) ParseLogLevel() slog.Level {
	return parseLevel(c.LogLevel)
}

func (c Console) Validate() error {
	if err := errors.Join(c.parseErrs...); err != nil {
		return err
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_BASE_URL %q: must be an absolute URL", c.APIBaseURL)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT %s: must be positive", c.RequestTimeout)
	}
	if c.FetchRetries < 0 {
		return fmt.Errorf("invalid FETCH_RETRIES %d: must not be negative", c.FetchRetries)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("invalid PAGE_SIZE %d: must be between 1 and 100", c.PageSize)
	}
	if c.SearchDebounce < 0 || c.CacheStaleTime < 0 {
		return errors.New("SEARCH_DEBOUNCE and CACHE_STALE_TIME must not be negative")
	}
	if c.SessionPath == "" {
		return errors.New("SESSION_PATH is required")
	}
	return nil
}

func LoadConsole() Console {
	c := Console{
		APIBaseURL: envOrDefault("API_BASE_URL", DefaultAPIBaseURL),
		AppEnv:     envOrDefault("APP_ENV", "local"),
		LogLevel:   envOrDefault("LOG_LEVEL", "warn"),
	}
	c.SessionPath = envOrDefault("SESSION_PATH", defaultSessionPath())
	c.RequestTimeout = c.duration("REQUEST_TIMEOUT", DefaultRequestTimeout)
	c.SearchDebounce = c.duration("SEARCH_DEBOUNCE", DefaultSearchDebounce)
	c.CacheStaleTime = c.duration("CACHE_STALE_TIME", 0)
	c.CacheGCTime = c.duration("CACHE_GC_TIME", DefaultCacheGCTime)
	c.FetchRetries = c.integer("FETCH_RETRIES", 2)
	c.PageSize = c.integer("PAGE_SIZE", 10)
	return c
}

func (c *Console) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return d
}

func (c *Console) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("invalid %s %q: %w", key, v, err))
		return def
	}
	return n
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".todo-console", "session.db")
	}
	return filepath.Join(home, ".todo-console", "session.db")
}
