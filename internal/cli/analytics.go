package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/analytics"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Query pipeline performance analytics from run history",
}

var analyticsStageDurationCmd = &cobra.Command{
	Use:   "stage-duration",
	Short: "Average and percentile durations per stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		since, _ := cmd.Flags().GetString("since")
		rows, err := analytics.QueryStageDurations(cmd.Context(), database, since)
		if err != nil {
			return err
		}
		if handled, err := writeJSON(cmd, rows); handled {
			return err
		}

		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(w, "No completed stages recorded.")
			return nil
		}
		fmt.Fprintf(w, "%-28s %-6s %-10s %-10s %s\n", "STAGE", "COUNT", "AVG(s)", "P50(s)", "P95(s)")
		rule(w, 28, 6, 10, 10, 6)
		for _, r := range rows {
			fmt.Fprintf(w, "%-28s %-6d %-10.2f %-10.2f %.2f\n", r.Stage, r.Count, r.Avg, r.P50, r.P95)
		}
		return nil
	},
}

var analyticsFailureRateCmd = &cobra.Command{
	Use:   "failure-rate",
	Short: "Failure rates by stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		since, _ := cmd.Flags().GetString("since")
		rows, err := analytics.QueryStageFailureRates(cmd.Context(), database, since)
		if err != nil {
			return err
		}
		if handled, err := writeJSON(cmd, rows); handled {
			return err
		}

		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(w, "No stage outcomes recorded.")
			return nil
		}
		fmt.Fprintf(w, "%-28s %-6s %-7s %s\n", "STAGE", "TOTAL", "FAILED", "FAIL%")
		rule(w, 28, 6, 7, 5)
		for _, r := range rows {
			fmt.Fprintf(w, "%-28s %-6d %-7d %.1f\n", r.Stage, r.Total, r.Failed, r.FailPct)
		}
		return nil
	},
}

var analyticsThroughputCmd = &cobra.Command{
	Use:   "throughput",
	Short: "Runs started, completed and failed per day",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		since, _ := cmd.Flags().GetString("since")
		rows, err := analytics.QueryRunThroughput(cmd.Context(), database, since)
		if err != nil {
			return err
		}
		if handled, err := writeJSON(cmd, rows); handled {
			return err
		}

		w := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}
		fmt.Fprintf(w, "%-12s %-8s %-10s %s\n", "DAY", "STARTED", "COMPLETED", "FAILED")
		rule(w, 12, 8, 10, 6)
		for _, r := range rows {
			fmt.Fprintf(w, "%-12s %-8d %-10d %d\n", r.Period, r.Started, r.Completed, r.Failed)
		}
		return nil
	},
}

// writeJSON prints v as indented JSON when --format json is set.
func writeJSON(cmd *cobra.Command, v interface{}) (bool, error) {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" {
		return false, nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return true, fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return true, nil
}

// rule prints a dashed separator line with one segment per column width.
func rule(w io.Writer, widths ...int) {
	parts := make([]string, len(widths))
	for i, n := range widths {
		parts[i] = strings.Repeat("-", n)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func init() {
	for _, c := range []*cobra.Command{analyticsStageDurationCmd, analyticsFailureRateCmd, analyticsThroughputCmd} {
		c.Flags().String("since", "", "Only include events at or after this timestamp (YYYY-MM-DD[ HH:MM:SS])")
		c.Flags().String("format", "text", "Output format: text or json")
		analyticsCmd.AddCommand(c)
	}
}
