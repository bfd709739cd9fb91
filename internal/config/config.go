package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// CronParser accepts the six-field expressions used by the scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerMinute int           `yaml:"requests_per_minute"` // negative disables pacing
		Mock              bool          `yaml:"mock"`
	} `yaml:"provider"`
	IndexSymbol string `yaml:"index_symbol"`
	Membership  struct {
		Source string `yaml:"source"` // CSV file path or http(s) URL
	} `yaml:"membership"`
	Schedule struct {
		RefreshCron string   `yaml:"refresh_cron"`
		Watchlist   []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// LoadDotEnv loads KEY=VALUE pairs from .env style files into the process environment.
// Missing files are ignored and variables already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("POLYGON_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("POLYGON_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("POLYGON_TIMEOUT: %w", err)
		}
		cfg.Provider.Timeout = d
	}
	if v := os.Getenv("POLYGON_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("POLYGON_REQUESTS_PER_MINUTE: %w", err)
		}
		cfg.Provider.RequestsPerMinute = n
	}
	if v := os.Getenv("MOCK_PROVIDER"); v != "" {
		cfg.Provider.Mock = v == "true" || v == "1"
	}
	if v := os.Getenv("INDEX_SYMBOL"); v != "" {
		cfg.IndexSymbol = v
	}
	if v := os.Getenv("MEMBERSHIP_SOURCE"); v != "" {
		cfg.Membership.Source = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = strings.Split(v, ",")
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.Logging.Pretty = v == "true" || v == "1"
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = "https://api.polygon.io"
	}
	if cfg.Provider.RequestsPerMinute == 0 {
		cfg.Provider.RequestsPerMinute = 5
	}
	if cfg.IndexSymbol == "" {
		cfg.IndexSymbol = "SPY"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	cfg.IndexSymbol = strings.ToUpper(strings.TrimSpace(cfg.IndexSymbol))
	watchlist := cfg.Schedule.Watchlist[:0]
	for _, s := range cfg.Schedule.Watchlist {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			watchlist = append(watchlist, s)
		}
	}
	cfg.Schedule.Watchlist = watchlist

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" && !c.Provider.Mock {
		return fmt.Errorf("provider.api_key is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}
	if c.IndexSymbol == "" {
		return fmt.Errorf("index_symbol is required")
	}
	if c.Schedule.RefreshCron != "" {
		if _, err := CronParser.Parse(c.Schedule.RefreshCron); err != nil {
			return fmt.Errorf("schedule.refresh_cron: %w", err)
		}
		if len(c.Schedule.Watchlist) == 0 {
			return fmt.Errorf("schedule.watchlist is required when refresh_cron is set")
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
