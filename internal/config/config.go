// Package config loads the YAML configuration, expands ${ENV} references,
// applies environment overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5m" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	Listen    string `yaml:"listen"`
	DBPath    string `yaml:"db_path"`
	LockDir   string `yaml:"lock_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Archive   ArchiveConfig   `yaml:"archive"`
	Compute   ComputeConfig   `yaml:"compute"`
	Retention RetentionConfig `yaml:"retention"`
	Auth      AuthConfig      `yaml:"auth"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ArchiveConfig controls the daily sealing of compliance periods.
type ArchiveConfig struct {
	Enabled       bool `yaml:"enabled"`
	Hour          int  `yaml:"hour"`
	Minute        int  `yaml:"minute"`
	StrictLocking bool `yaml:"strict_locking"`
}

// ComputeConfig controls the rolling compliance calculation.
type ComputeConfig struct {
	PeriodHours int      `yaml:"period_hours"`
	CacheTTL    Duration `yaml:"cache_ttl"`
	Interval    Duration `yaml:"interval"`
}

// RetentionConfig controls pruning. Archives are never pruned.
type RetentionConfig struct {
	JobsDays      int `yaml:"jobs_days"`
	SnapshotsDays int `yaml:"snapshots_days"`
}

// AuthConfig carries the API credentials. PasswordHash is a bcrypt hash;
// JWTSecret signs session tokens and must come from the environment in
// production.
type AuthConfig struct {
	Username     string   `yaml:"username"`
	PasswordHash string   `yaml:"password_hash"`
	JWTSecret    string   `yaml:"jwt_secret"`
	TokenTTL     Duration `yaml:"token_ttl"`
}

// AlertsConfig controls compliance alerting.
type AlertsConfig struct {
	Enabled         bool     `yaml:"enabled"`
	MinRate         float64  `yaml:"min_rate"`
	Cooldown        Duration `yaml:"cooldown"`
	AlertUnreferred bool     `yaml:"alert_unreferenced"`
}

// NotifyConfig lists the outbound notification channels.
type NotifyConfig struct {
	Ntfy    NtfyConfig    `yaml:"ntfy"`
	Webhook WebhookConfig `yaml:"webhook"`
}

type NtfyConfig struct {
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
	Token string `yaml:"token"`
}

type WebhookConfig struct {
	URL string `yaml:"url"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		DBPath:    "backcheck.db",
		LockDir:   ".locks",
		LogLevel:  "info",
		LogFormat: "text",
		Archive: ArchiveConfig{
			Enabled: true,
			Hour:    6,
			Minute:  0,
		},
		Compute: ComputeConfig{
			PeriodHours: 24,
			CacheTTL:    Duration(time.Minute),
			Interval:    Duration(time.Hour),
		},
		Retention: RetentionConfig{
			JobsDays:      30,
			SnapshotsDays: 90,
		},
		Auth: AuthConfig{
			TokenTTL: Duration(12 * time.Hour),
		},
		Alerts: AlertsConfig{
			MinRate:  90,
			Cooldown: Duration(4 * time.Hour),
		},
	}
}

// Load reads the YAML file at path on top of the defaults. ${VAR} references
// in the file are expanded from the environment before parsing, and
// BACKCHECK_* environment variables override the file afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		expanded := os.Expand(string(raw), func(key string) string {
			return os.Getenv(key)
		})
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKCHECK_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("BACKCHECK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BACKCHECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BACKCHECK_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("BACKCHECK_ARCHIVE_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Archive.Hour = n
		}
	}
	if v := os.Getenv("BACKCHECK_ARCHIVE_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Archive.Minute = n
		}
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Archive.Hour < 0 || c.Archive.Hour > 23 {
		return fmt.Errorf("archive.hour %d out of range [0,23]", c.Archive.Hour)
	}
	if c.Archive.Minute < 0 || c.Archive.Minute > 59 {
		return fmt.Errorf("archive.minute %d out of range [0,59]", c.Archive.Minute)
	}
	if c.Compute.PeriodHours <= 0 {
		return fmt.Errorf("compute.period_hours must be positive")
	}
	if c.Retention.JobsDays <= 0 || c.Retention.SnapshotsDays <= 0 {
		return fmt.Errorf("retention windows must be positive")
	}
	if c.Alerts.Enabled && (c.Alerts.MinRate < 0 || c.Alerts.MinRate > 100) {
		return fmt.Errorf("alerts.min_rate %v out of range [0,100]", c.Alerts.MinRate)
	}
	if c.Auth.Username != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// AuthEnabled reports whether API authentication is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.Username != ""
}
