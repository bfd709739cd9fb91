package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"POLYGON_API_KEY", "POLYGON_BASE_URL", "POLYGON_TIMEOUT", "POLYGON_REQUESTS_PER_MINUTE",
		"MOCK_PROVIDER", "INDEX_SYMBOL", "MEMBERSHIP_SOURCE", "REFRESH_CRON", "WATCHLIST",
		"SQLITE_PATH", "LOG_LEVEL", "LOG_PRETTY", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.polygon.io", cfg.Provider.BaseURL)
	assert.Equal(t, 5, cfg.Provider.RequestsPerMinute)
	assert.Zero(t, cfg.Provider.Timeout)
	assert.Equal(t, "SPY", cfg.IndexSymbol)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Database.SQLitePath)

	assert.EqualError(t, cfg.Validate(), "provider.api_key is required")
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
provider:
  api_key: file-key
  timeout: 15s
  requests_per_minute: -1
index_symbol: qqq
membership:
  source: data/sp500.csv
schedule:
  refresh_cron: "0 30 16 * * 1-5"
  watchlist: [aapl, " msft ", ""]
database:
  sqlite_path: data/history.db
logging:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Provider.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, -1, cfg.Provider.RequestsPerMinute)
	assert.Equal(t, "QQQ", cfg.IndexSymbol)
	assert.Equal(t, "data/sp500.csv", cfg.Membership.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Schedule.Watchlist)
	assert.Equal(t, "data/history.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.Logging.Pretty)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "provider:\n  api_key: file-key\n")
	t.Setenv("POLYGON_API_KEY", "env-key")
	t.Setenv("POLYGON_TIMEOUT", "2s")
	t.Setenv("INDEX_SYMBOL", "DIA")
	t.Setenv("WATCHLIST", "nvda,amd")
	t.Setenv("REFRESH_CRON", "@daily")
	t.Setenv("HTTPS_PROXY", "http://proxy:8080")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, "DIA", cfg.IndexSymbol)
	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Schedule.Watchlist)
	assert.Equal(t, "http://proxy:8080", cfg.Proxy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadInput(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "config.yaml", "provider: [unclosed"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("POLYGON_REQUESTS_PER_MINUTE", "lots")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "POLYGON_REQUESTS_PER_MINUTE")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"mock needs no key", func(c *Config) { c.Provider.APIKey = ""; c.Provider.Mock = true }, ""},
		{"bad cron", func(c *Config) { c.Schedule.RefreshCron = "every day"; c.Schedule.Watchlist = []string{"AAPL"} }, "schedule.refresh_cron"},
		{"cron without watchlist", func(c *Config) { c.Schedule.RefreshCron = "0 0 17 * * 1-5" }, "schedule.watchlist is required when refresh_cron is set"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"negative timeout", func(c *Config) { c.Provider.Timeout = -time.Second }, "provider.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			cfg.Provider.APIKey = "k"
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "POLYGON_API_KEY=from-dotenv\nINDEX_SYMBOL=QQQ\n")
	t.Setenv("INDEX_SYMBOL", "DIA")
	// godotenv only fills unset variables, so drop the blank placeholder first.
	os.Unsetenv("POLYGON_API_KEY")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("POLYGON_API_KEY"))
	assert.Equal(t, "DIA", os.Getenv("INDEX_SYMBOL"))
}
