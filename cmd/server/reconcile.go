package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/warp/timeentry/calendar"
	"github.com/warp/timeentry/timeentry"
)

func reconcileCmd(g *globalFlags) *cobra.Command {
	var start, end, format string

	c := &cobra.Command{
		Use:   "reconcile",
		Short: "Ensure a time entry exists for every day of [--start, --end]",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (use text or json)", format)
			}

			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}

			interval, err := parseInterval(start, end, cfg.Reconcile.MaxIntervalDays)
			if err != nil {
				return err
			}

			d, err := openDeps(cfg)
			if err != nil {
				return err
			}
			defer d.shutdown()

			result, err := timeentry.Audited(cmd.Context(), d.runs, d.logger, timeentry.TriggerCLI, interval, d.reconciler.Reconcile)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, format)
		},
	}

	c.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD or RFC3339)")
	c.Flags().StringVar(&end, "end", "", "Last day, inclusive (YYYY-MM-DD or RFC3339)")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}

func parseInterval(rawStart, rawEnd string, maxDays int) (calendar.Interval, error) {
	start, err := calendar.ParseInstant(rawStart)
	if err != nil {
		return calendar.Interval{}, fmt.Errorf("--start: %w", err)
	}
	end, err := calendar.ParseInstant(rawEnd)
	if err != nil {
		return calendar.Interval{}, fmt.Errorf("--end: %w", err)
	}
	interval := calendar.NormalizeInterval(start, end)
	return interval, timeentry.ValidateInterval(interval, maxDays)
}

func printResult(w io.Writer, result timeentry.Result, format string) error {
	if format == "json" {
		ids := make([]string, len(result.CreatedIDs))
		for i, id := range result.CreatedIDs {
			ids[i] = string(id)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"start":       result.Interval.Start.String(),
			"end":         result.Interval.End.String(),
			"created_ids": ids,
		})
	}

	fmt.Fprintf(w, "%s: %d entries created\n", result.Interval, result.Created())
	for i, id := range result.CreatedIDs {
		fmt.Fprintf(w, "  %s  %s\n", result.CreatedDays[i], id)
	}
	return nil
}
