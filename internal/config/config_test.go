package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15, cfg.Fetch.TimeoutSeconds)
	require.Equal(t, 4*1024*1024, cfg.Fetch.MaxBodyBytes)
	require.Equal(t, 4, cfg.Importer.Concurrency)
	require.Equal(t, 10, cfg.SmartList.StaleRunningMinutes)
	require.Equal(t, 20, cfg.SmartList.ListPageSize)
	require.Empty(t, cfg.DB.DSN)
	require.Empty(t, cfg.Assist.APIKey)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, 10*time.Minute, cfg.StaleRunningWindow())
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
fetch:
  timeout_seconds: 30
smartlist:
  stale_running_minutes: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 30, cfg.Fetch.TimeoutSeconds)
	require.Equal(t, 5*time.Minute, cfg.StaleRunningWindow())
	// Untouched keys keep their defaults.
	require.Equal(t, 5, cfg.Fetch.MaxRedirects)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.TimeoutSeconds = 0 }},
		{"zero body cap", func(c *Config) { c.Fetch.MaxBodyBytes = 0 }},
		{"negative redirects", func(c *Config) { c.Fetch.MaxRedirects = -1 }},
		{"zero concurrency", func(c *Config) { c.Importer.Concurrency = 0 }},
		{"zero stale window", func(c *Config) { c.SmartList.StaleRunningMinutes = 0 }},
		{"auth without key", func(c *Config) { c.Auth.Enabled = true; c.Auth.APIKey = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
