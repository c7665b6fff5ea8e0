/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Load config and apply flag overrides
  2. Initialize store (SQLite or memory)
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start backfill scheduler (if enabled)
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (in-flight pass is cancelled)
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close database connection
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/timeentry/api"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var port int

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			d, err := openDeps(cfg)
			if err != nil {
				return err
			}
			defer d.shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, d)
		},
	}

	c.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	return c
}

// serve runs the HTTP server until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, d *deps) error {
	cfg, logger := d.cfg, d.logger

	handler := api.NewHandler(d.records, d.runs, d.reconciler, cfg.Reconcile.MaxIntervalDays, logger.Named("api"))
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	scheduler := api.NewBackfillScheduler(d.reconciler, d.runs, cfg.Scheduler, logger)
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("api", fmt.Sprintf("http://localhost:%d/api", cfg.Server.Port)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
