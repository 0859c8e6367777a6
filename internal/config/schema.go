// Package config loads the generator's YAML configuration, applies defaults,
// validates it and hot-reloads it on file changes.
package config

import (
	"strconv"
	"time"

	"sentinel/generator/internal/domain"
)

// Config is the top-level YAML structure.
type Config struct {
	Version   string        `yaml:"version"`
	Server    ServerConf    `yaml:"server"`
	Log       LogConf       `yaml:"log"`
	Generator GeneratorConf `yaml:"generator"`
	Publisher PublisherConf `yaml:"publisher"`
	Store     StoreConf     `yaml:"store"`
	Sinks     SinksConf     `yaml:"sinks"`
}

// ServerConf configures the HTTP API.
type ServerConf struct {
	Addr string `yaml:"addr"`
}

// LogConf selects the slog level and handler.
type LogConf struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// GeneratorConf seeds the engine. Zero means a time-based seed.
type GeneratorConf struct {
	Seed int64 `yaml:"seed"`
}

// PublisherConf holds the hot-reloadable emission settings.
type PublisherConf struct {
	IntervalMs int  `yaml:"interval_ms"`
	Paused     bool `yaml:"paused"`
}

// Interval returns IntervalMs as a duration.
func (p PublisherConf) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// StoreConf bounds the in-memory event store.
type StoreConf struct {
	Capacity int `yaml:"capacity"`
}

// SinksConf lists the outputs events are fanned out to.
type SinksConf struct {
	Stdout   bool          `yaml:"stdout"`
	JSONL    JSONLConf     `yaml:"jsonl"`
	Postgres PostgresConf  `yaml:"postgres"`
	Webhooks []WebhookConf `yaml:"webhooks"`
}

// JSONLConf configures the rotating file sink.
type JSONLConf struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// PostgresConf enables the Postgres sink when DSN is set.
type PostgresConf struct {
	DSN       string `yaml:"dsn"`
	BatchSize int    `yaml:"batch_size"`
}

// WebhookConf is a statically configured webhook endpoint.
type WebhookConf struct {
	URL        string   `yaml:"url"`
	Patterns   []string `yaml:"patterns"` // empty = fraud patterns only, "*" = all
	RatePerSec float64  `yaml:"rate_per_sec"`
	Burst      int      `yaml:"burst"`
}

// StaticWebhooks converts the configured endpoints into always-active hooks.
func (s SinksConf) StaticWebhooks() []*domain.WebhookConfig {
	hooks := make([]*domain.WebhookConfig, 0, len(s.Webhooks))
	for i, w := range s.Webhooks {
		hooks = append(hooks, &domain.WebhookConfig{
			ID:         "config-" + strconv.Itoa(i),
			URL:        w.URL,
			Patterns:   w.Patterns,
			RatePerSec: w.RatePerSec,
			Burst:      w.Burst,
			Active:     true,
		})
	}
	return hooks
}
