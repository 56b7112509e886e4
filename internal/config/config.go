// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Importer  ImporterConfig  `mapstructure:"importer"`
	Assist    AssistConfig    `mapstructure:"assist"`
	SmartList SmartListConfig `mapstructure:"smartlist"`
	DB        DBConfig        `mapstructure:"db"`
	Blob      BlobConfig      `mapstructure:"blob"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior. BaseURL is the service's own
// externally reachable address, used when composing trigger callbacks.
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// FetchConfig bounds outbound page fetches.
type FetchConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	MaxRedirects   int    `mapstructure:"max_redirects"`
	UserAgent      string `mapstructure:"user_agent"`
}

// ImporterConfig governs the import worker pool.
type ImporterConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	QueueDepth  int `mapstructure:"queue_depth"`
}

// AssistConfig configures the AI caption assist. An empty APIKey
// soft-disables the assist; it is never a startup failure.
type AssistConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SmartListConfig governs smart-list job recovery.
type SmartListConfig struct {
	StaleRunningMinutes int `mapstructure:"stale_running_minutes"`
	ListPageSize        int `mapstructure:"list_page_size"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory store (local development).
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// BlobConfig sets raw-payload archival. An empty bucket selects the
// in-memory provider.
type BlobConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig holds metadata for publish-subscribe notifications.
type EventsConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SIMMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.max_body_bytes", 4*1024*1024)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.user_agent", "simmer-bot/0.1")
	v.SetDefault("importer.concurrency", 4)
	v.SetDefault("importer.queue_depth", 64)
	v.SetDefault("assist.model", "gemini-1.5-flash")
	v.SetDefault("smartlist.stale_running_minutes", 10)
	v.SetDefault("smartlist.list_page_size", 20)
	v.SetDefault("blob.prefix", "imports")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0")
	}
	if c.Fetch.MaxRedirects < 0 {
		return fmt.Errorf("fetch.max_redirects must be >= 0")
	}
	if c.Importer.Concurrency <= 0 {
		return fmt.Errorf("importer.concurrency must be > 0")
	}
	if c.SmartList.StaleRunningMinutes <= 0 {
		return fmt.Errorf("smartlist.stale_running_minutes must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout converts the configured fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// StaleRunningWindow is how long a RUNNING smart-list job may sit before it
// is considered abandoned and eligible for reclaim.
func (c Config) StaleRunningWindow() time.Duration {
	return time.Duration(c.SmartList.StaleRunningMinutes) * time.Minute
}
