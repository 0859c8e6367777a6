package config

// Default values applied to fields left empty in the file.
const (
	DefaultVersion    = "v1"
	DefaultAddr       = ":8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultIntervalMs = 500
	DefaultCapacity   = 10_000
	DefaultJSONLPath  = "data/transactions.jsonl"
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 7
	DefaultBatchSize  = 100
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Sinks.JSONL.Compress = true
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Publisher.IntervalMs == 0 {
		cfg.Publisher.IntervalMs = DefaultIntervalMs
	}
	if cfg.Store.Capacity == 0 {
		cfg.Store.Capacity = DefaultCapacity
	}
	j := &cfg.Sinks.JSONL
	if j.Path == "" {
		j.Path = DefaultJSONLPath
	}
	if j.MaxSizeMB == 0 {
		j.MaxSizeMB = DefaultMaxSizeMB
	}
	if j.MaxBackups == 0 {
		j.MaxBackups = DefaultMaxBackups
	}
	if j.MaxAgeDays == 0 {
		j.MaxAgeDays = DefaultMaxAgeDays
	}
	if cfg.Sinks.Postgres.BatchSize == 0 {
		cfg.Sinks.Postgres.BatchSize = DefaultBatchSize
	}
}
