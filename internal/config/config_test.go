package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 24, cfg.Compute.PeriodHours)
	assert.Equal(t, 6, cfg.Archive.Hour)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, time.Minute, cfg.Compute.CacheTTL.Std())
	assert.Equal(t, 30, cfg.Retention.JobsDays)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
db_path: /var/lib/backcheck/data.db
log_level: debug
archive:
  enabled: true
  hour: 7
  minute: 30
  strict_locking: true
compute:
  period_hours: 48
  cache_ttl: 5m
  interval: 30m
retention:
  jobs_days: 14
  snapshots_days: 60
alerts:
  enabled: true
  min_rate: 85.5
  cooldown: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/var/lib/backcheck/data.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Archive.Hour)
	assert.Equal(t, 30, cfg.Archive.Minute)
	assert.True(t, cfg.Archive.StrictLocking)
	assert.Equal(t, 48, cfg.Compute.PeriodHours)
	assert.Equal(t, 5*time.Minute, cfg.Compute.CacheTTL.Std())
	assert.Equal(t, 14, cfg.Retention.JobsDays)
	assert.InDelta(t, 85.5, cfg.Alerts.MinRate, 0.001)
	assert.Equal(t, 2*time.Hour, cfg.Alerts.Cooldown.Std())
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/expanded.db")
	path := writeConfig(t, "db_path: ${TEST_DB_PATH}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/expanded.db", cfg.DBPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BACKCHECK_LISTEN", ":7070")
	t.Setenv("BACKCHECK_JWT_SECRET", "from-env")
	t.Setenv("BACKCHECK_ARCHIVE_HOUR", "22")
	path := writeConfig(t, "listen: \":9090\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Listen, "environment beats the file")
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 22, cfg.Archive.Hour)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }},
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"archive hour too large", func(c *Config) { c.Archive.Hour = 24 }},
		{"archive hour negative", func(c *Config) { c.Archive.Hour = -1 }},
		{"archive minute too large", func(c *Config) { c.Archive.Minute = 60 }},
		{"zero period", func(c *Config) { c.Compute.PeriodHours = 0 }},
		{"zero retention", func(c *Config) { c.Retention.JobsDays = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad alert rate", func(c *Config) { c.Alerts.Enabled = true; c.Alerts.MinRate = 150 }},
		{"auth without secret", func(c *Config) { c.Auth.Username = "admin"; c.Auth.JWTSecret = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestDurationRejectsGarbage(t *testing.T) {
	path := writeConfig(t, "compute:\n  cache_ttl: banana\n")
	_, err := Load(path)
	assert.Error(t, err)
}
