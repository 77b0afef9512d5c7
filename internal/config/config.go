// Package config loads and validates enricher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kruzhok-data/org-enricher/internal/archive"
	"github.com/kruzhok-data/org-enricher/internal/publisher"
	"github.com/kruzhok-data/org-enricher/internal/sink"
	"github.com/kruzhok-data/org-enricher/internal/source"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging      LoggingConfig     `mapstructure:"logging"`
	HTTP         HTTPConfig        `mapstructure:"http"`
	Enrich       EnrichConfig      `mapstructure:"enrich"`
	Availability map[string]string `mapstructure:"availability"`
	Social       SocialConfig      `mapstructure:"social"`
	Source       source.Config     `mapstructure:"source"`
	Sink         sink.Config       `mapstructure:"sink"`
	Archive      archive.Config    `mapstructure:"archive"`
	Publisher    publisher.Config  `mapstructure:"publisher"`
	Server       ServerConfig      `mapstructure:"server"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures fetch timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxRetries       int    `mapstructure:"max_retries"`
	MaxRedirects     int    `mapstructure:"max_redirects"`
	BackoffInitialMs int    `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`
	UserAgent        string `mapstructure:"user_agent"`
}

// Timeout returns the per-fetch timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the first retry delay.
func (c HTTPConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the retry delay ceiling.
func (c HTTPConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// EnrichConfig governs the pipeline and per-organization budgets.
type EnrichConfig struct {
	Concurrency    int `mapstructure:"concurrency"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxSitePages   int `mapstructure:"max_site_pages"`
}

// Timeout returns the per-organization enrichment cutoff.
func (c EnrichConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SocialConfig holds per-platform rate budgets and credentials.
type SocialConfig struct {
	DefaultRPS         float64            `mapstructure:"default_rps"`
	DefaultBurst       int                `mapstructure:"default_burst"`
	PlatformRPS        map[string]float64 `mapstructure:"platform_rps"`
	InstagramSessionID string             `mapstructure:"instagram_session_id"`
	TwitterBearerToken string             `mapstructure:"twitter_bearer_token"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ENRICHER")
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
	v.SetDefault("logging.development", true)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 2000)
	v.SetDefault("http.user_agent", "kruzhok-enricher/0.1")
	v.SetDefault("enrich.concurrency", 8)
	v.SetDefault("enrich.timeout_seconds", 90)
	v.SetDefault("enrich.max_site_pages", 1)
	v.SetDefault("social.default_rps", 1)
	v.SetDefault("social.default_burst", 1)
	v.SetDefault("source.provider", "file")
	v.SetDefault("source.per_page", 5000)
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("sink.provider", "csv")
	v.SetDefault("sink.csv_path", "results.csv")
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Enrich.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	if c.Enrich.TimeoutSeconds <= 0 {
		return fmt.Errorf("enrich.timeout_seconds must be > 0")
	}
	if c.Enrich.MaxSitePages <= 0 {
		return fmt.Errorf("enrich.max_site_pages must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}
