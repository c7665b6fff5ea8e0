package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeentry/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeentry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  write_timeout: 5s
store:
  driver: memory
reconcile:
  max_concurrency: 0
scheduler:
  enabled: true
  interval: 15m
  lookahead_days: 14
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 0, cfg.Reconcile.MaxConcurrency)
	assert.Equal(t, 366, cfg.Reconcile.MaxIntervalDays)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 7, cfg.Scheduler.LookbackDays)
	assert.Equal(t, 14, cfg.Scheduler.LookaheadDays)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [port")
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "dataverse" }},
		{"sqlite without path", func(c *config.Config) { c.Store.Path = "" }},
		{"negative concurrency", func(c *config.Config) { c.Reconcile.MaxConcurrency = -1 }},
		{"negative max days", func(c *config.Config) { c.Reconcile.MaxIntervalDays = -1 }},
		{"scheduler zero interval", func(c *config.Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Interval = 0
		}},
		{"bad log level", func(c *config.Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_MemoryDriverNeedsNoPath(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	cfg.Store.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestLogConfig_NewLogger(t *testing.T) {
	logger, err := config.LogConfig{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = config.LogConfig{Level: "nope"}.NewLogger()
	assert.Error(t, err)
}
