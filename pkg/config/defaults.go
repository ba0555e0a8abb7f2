package config

import (
	"os"
	"time"

	"github.com/ccollicutt/wherewas/pkg/timestamp"
)

// Default values for configuration.
const (
	DefaultMaxGap         = 6 * time.Hour
	DefaultWebhookTimeout = 10 * time.Second
	DefaultLogLevel       = LogLevelInfo
	DefaultLogFormat      = LogFormatText
)

// Environment variable names.
const (
	EnvSource   = "WHEREWAS_SOURCE"
	EnvHistory  = "LOCATION_HISTORY_PATH"
	EnvLogLevel = "WHEREWAS_LOG_LEVEL"
	EnvCacheDir = "WHEREWAS_CACHE_DIR"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{Enabled: true},
		Timestamps: TimestampConfig{
			AssumeUTCForNaive: true,
		},
		Coverage: CoverageConfig{MaxGap: DefaultMaxGap},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if src := os.Getenv(EnvSource); src != "" {
		c.Source = src
	} else if src := os.Getenv(EnvHistory); src != "" {
		c.Source = src
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = LogLevel(level)
	}

	if dir := os.Getenv(EnvCacheDir); dir != "" {
		c.Cache.Dir = dir
	}
}

// Normalizer returns the timestamp normalizer described by the config.
func (c *Config) Normalizer() timestamp.Normalizer {
	return timestamp.Normalizer{
		AssumeUTCForNaive: c.Timestamps.AssumeUTCForNaive,
		NaiveLocation:     c.Timestamps.Location(),
	}
}
