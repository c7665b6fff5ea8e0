/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the time-entry reconciliation service.
  Handles configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve       Run the HTTP API (and the backfill scheduler if enabled)
  reconcile   Reconcile one interval and print the created ids

GLOBAL FLAGS:
  --config    YAML config file (optional; built-in defaults otherwise)
  --driver    Store driver override: sqlite | memory
  --db        SQLite database path override
              Use ":memory:" for an in-memory database

EXAMPLES:
  # Run with file database
  ./server serve --db=./data/timeentry.db

  # Run on different port with a config file
  ./server serve --config=timeentry.yaml --port=3000

  # One-shot backfill
  ./server reconcile --start=2022-04-01 --end=2022-04-30

SEE ALSO:
  - serve.go: HTTP server startup and shutdown
  - reconcile.go: One-shot reconciliation
  - config/config.go: Configuration keys and defaults
*/
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	driver     string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:          "timeentry",
		Short:        "Time-entry day reconciliation service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&g.driver, "driver", "", "Store driver override (sqlite|memory)")
	cmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path override")

	cmd.AddCommand(serveCmd(&g))
	cmd.AddCommand(reconcileCmd(&g))
	return cmd
}
