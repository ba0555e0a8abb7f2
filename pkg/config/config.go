package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // naive_timezone must resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

// Override adjusts a configuration after file and environment values are
// applied and before validation. Command-line flags use it.
type Override func(*Config)

// Load reads and validates a configuration file.
func Load(ctx context.Context, path string) (*Config, error) {
	return Resolve(ctx, path)
}

// Resolve builds a configuration from an optional file, the environment and
// overrides, then validates it. An empty path starts from DefaultConfig.
func Resolve(_ context.Context, path string, overrides ...Override) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	for _, o := range overrides {
		o(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Source) == "" {
		return fmt.Errorf("source: a location history file is required (set it in the config, with --source, or via %s)", EnvSource)
	}

	if err := validateTimestamps(&cfg.Timestamps); err != nil {
		return fmt.Errorf("timestamps: %w", err)
	}

	if cfg.Coverage.MaxGap < 0 {
		return fmt.Errorf("coverage: max_gap must not be negative, got %s", cfg.Coverage.MaxGap)
	}
	if cfg.Coverage.MaxGap == 0 {
		cfg.Coverage.MaxGap = DefaultMaxGap
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateTimestamps(ts *TimestampConfig) error {
	if ts.NaiveTimezone == "" {
		ts.location = nil
		return nil
	}

	loc, err := time.LoadLocation(ts.NaiveTimezone)
	if err != nil {
		return fmt.Errorf("invalid naive_timezone %q: %w", ts.NaiveTimezone, err)
	}
	ts.location = loc

	return nil
}

func validateLogging(l *LoggingConfig) error {
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	l.Level = LogLevel(strings.ToLower(string(l.Level)))
	switch l.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid level %q (must be debug, info, warn, or error)", l.Level)
	}

	if l.Format == "" {
		l.Format = DefaultLogFormat
	}
	switch l.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", l.Format)
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnMissing, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_missing, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnMissing
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
