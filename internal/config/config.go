// Package config defines service configuration and its loading.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and SCOREBOARD_* env vars over the defaults.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
	"strings"
	"time"
)

// CriterionConfig names one evaluation criterion and its display label.
type CriterionConfig struct {
	Key   string `koanf:"key"`
	Label string `koanf:"label"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the document store backend: sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the driver-specific data source name. Empty uses the driver default.
	StoreDSN string `koanf:"store_dsn"`

	// RedisAddr enables the record cache when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	// CacheTTL bounds how long a cached record collection lives.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// EventQueueSize bounds the in-memory submission queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of store writers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the submission id deduper.
	DedupeSize int `koanf:"dedupe_size"`

	// CORSOrigins is a comma separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// Criteria is the known criterion set, in display order.
	Criteria []CriterionConfig `koanf:"criteria"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		StoreDriver:    "sqlite",
		CacheTTL:       30 * time.Second,
		EventQueueSize: 10_000,
		WorkerCount:    runtime.NumCPU(),
		DedupeSize:     100_000,
		CORSOrigins:    "*",
		Criteria: []CriterionConfig{
			{Key: "team", Label: "Team"},
			{Key: "market", Label: "Market Opportunity"},
			{Key: "product", Label: "Product"},
			{Key: "traction", Label: "Traction"},
			{Key: "business_model", Label: "Business Model"},
			{Key: "financials", Label: "Financials"},
		},
	}
}

// Origins splits CORSOrigins into its trimmed, non-empty parts.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}
