// Package config provides configuration loading and validation for wherewas.
package config

import (
	"io"
	"log/slog"
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Source is the path to the location-history export.
	Source     string          `yaml:"source"`
	Cache      CacheConfig     `yaml:"cache"`
	Timestamps TimestampConfig `yaml:"timestamps"`
	Coverage   CoverageConfig  `yaml:"coverage"`
	Logging    LoggingConfig   `yaml:"logging"`
	Webhooks   []WebhookConfig `yaml:"webhooks,omitempty"`
}

// CacheConfig controls the on-disk index cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir overrides the default <source dir>/.timeline_cache.
	Dir string `yaml:"dir,omitempty"`
}

// TimestampConfig controls how timestamps without a zone are read.
type TimestampConfig struct {
	// AssumeUTCForNaive takes the wall clock of a naive timestamp as UTC.
	AssumeUTCForNaive bool `yaml:"assume_utc_for_naive"`

	// NaiveTimezone is an IANA zone name used when AssumeUTCForNaive is
	// false. Empty means the local zone.
	NaiveTimezone string `yaml:"naive_timezone,omitempty"`

	// location is resolved from NaiveTimezone during validation.
	location *time.Location
}

// Location returns the zone naive timestamps are interpreted in.
func (t *TimestampConfig) Location() *time.Location {
	if t.location == nil {
		return time.Local
	}
	return t.location
}

// CoverageConfig configures the gap analysis.
type CoverageConfig struct {
	// MaxGap is the longest uncovered stretch that is not reported. Zero
	// means DefaultMaxGap; `gaps --all-gaps` reports every stretch.
	MaxGap time.Duration `yaml:"max_gap"`
}

// LogLevel is a slog level name.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// SlogLevel maps Level to a slog.Level. Unknown names map to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnMissing fires when a query found nothing or the
	// coverage analysis reported issues (default).
	WebhookTriggerOnMissing WebhookTrigger = "on_missing"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_missing" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
