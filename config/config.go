/*
Package config loads the service configuration.

PRECEDENCE:
  1. Defaults (Default())
  2. YAML file (--config), missing keys keep their defaults
  3. Command-line flags (applied by cmd/server)

EXAMPLE FILE:
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  store:
    driver: sqlite
    path: ./data/timeentry.db
  reconcile:
    max_concurrency: 8
    max_interval_days: 366
  scheduler:
    enabled: true
    interval: 1h
    lookback_days: 7
    lookahead_days: 30
  log:
    level: info
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type ReconcileConfig struct {
	// MaxConcurrency caps concurrent creations per request; 0 = unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`
	// MaxIntervalDays rejects longer requests; 0 = no limit.
	MaxIntervalDays int `yaml:"max_interval_days"`
}

type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	LookbackDays  int           `yaml:"lookback_days"`
	LookaheadDays int           `yaml:"lookahead_days"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "timeentry.db",
		},
		Reconcile: ReconcileConfig{
			MaxConcurrency:  8,
			MaxIntervalDays: 366,
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			Interval:      time.Hour,
			LookbackDays:  7,
			LookaheadDays: 0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is empty"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q unknown (use %s or %s)", c.Store.Driver, DriverSQLite, DriverMemory))
	}

	if c.Reconcile.MaxConcurrency < 0 {
		errs = append(errs, errors.New("reconcile.max_concurrency must be >= 0"))
	}
	if c.Reconcile.MaxIntervalDays < 0 {
		errs = append(errs, errors.New("reconcile.max_interval_days must be >= 0"))
	}

	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			errs = append(errs, errors.New("scheduler.interval must be positive"))
		}
		if c.Scheduler.LookbackDays < 0 || c.Scheduler.LookaheadDays < 0 {
			errs = append(errs, errors.New("scheduler lookback/lookahead days must be >= 0"))
		}
	}

	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
