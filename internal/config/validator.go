package config

import (
	"fmt"
	"net/url"
	"strings"

	"sentinel/generator/internal/domain"
)

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks required fields, ranges and webhook definitions. Every
// problem found is reported in one error.
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", cfg.Log.Level))
	}
	if !validFormats[strings.ToLower(cfg.Log.Format)] {
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", cfg.Log.Format))
	}
	if cfg.Publisher.IntervalMs < 1 {
		errs = append(errs, "publisher.interval_ms must be positive")
	}
	if cfg.Store.Capacity < 1 {
		errs = append(errs, "store.capacity must be positive")
	}
	if cfg.Sinks.JSONL.Enabled && cfg.Sinks.JSONL.Path == "" {
		errs = append(errs, "sinks.jsonl.path is required when the sink is enabled")
	}
	if cfg.Sinks.Postgres.BatchSize < 0 {
		errs = append(errs, "sinks.postgres.batch_size must not be negative")
	}

	for i, w := range cfg.Sinks.Webhooks {
		loc := fmt.Sprintf("sinks.webhooks[%d]", i)
		if u, err := url.Parse(w.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("%s: url %q must be an absolute http(s) URL", loc, w.URL))
		}
		if w.RatePerSec < 0 {
			errs = append(errs, fmt.Sprintf("%s: rate_per_sec must not be negative", loc))
		}
		if w.Burst < 0 {
			errs = append(errs, fmt.Sprintf("%s: burst must not be negative", loc))
		}
		for _, name := range w.Patterns {
			if name == "*" {
				continue
			}
			if _, err := domain.ParsePattern(name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: unknown pattern %q", loc, name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
