package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/timeentry/config"
	"github.com/warp/timeentry/store/sqlite"
	"github.com/warp/timeentry/timeentry"
	"github.com/warp/timeentry/timeentry/store"
)

// deps is everything a command needs once configuration is resolved.
type deps struct {
	cfg        config.Config
	logger     *zap.Logger
	records    timeentry.Store
	runs       timeentry.RunStore
	reconciler *timeentry.Reconciler
	close      func()
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command, g *globalFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("driver") {
		cfg.Store.Driver = g.driver
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path = g.dbPath
		if !cmd.Flags().Changed("driver") {
			cfg.Store.Driver = config.DriverSQLite
		}
	}
	return cfg, cfg.Validate()
}

// openDeps builds the logger, store and reconciler for cfg.
func openDeps(cfg config.Config) (*deps, error) {
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	d := &deps{cfg: cfg, logger: logger}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		mem := store.NewMemory()
		d.records, d.runs = mem, mem
		d.close = func() {}
	default:
		db, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
		}
		d.records, d.runs = db, db
		d.close = func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close store", zap.Error(err))
			}
		}
	}

	d.reconciler = timeentry.NewReconciler(d.records, timeentry.Options{
		MaxConcurrency: cfg.Reconcile.MaxConcurrency,
		Logger:         logger.Named("reconciler"),
	})

	logger.Info("Store opened",
		zap.String("driver", cfg.Store.Driver),
		zap.String("path", cfg.Store.Path),
		zap.Int("max_concurrency", cfg.Reconcile.MaxConcurrency),
	)
	return d, nil
}

func (d *deps) shutdown() {
	d.close()
	_ = d.logger.Sync()
}
