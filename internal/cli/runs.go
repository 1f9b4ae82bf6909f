package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/db"
	"github.com/lucasnoah/mlfactory/internal/pipeline"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded pipeline runs",
}

// runStore returns the run record store under the configured artifacts root.
func runStore() (*pipeline.Store, *config.Store, error) {
	s, err := config.Load(docPaths)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewStore(pipeline.RunsDir(s.Run.ArtifactsRoot)), s, nil
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := runStore()
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		runs, err := store.List(status)
		if err != nil {
			return err
		}
		if handled, err := writeJSON(cmd, runs); handled {
			return err
		}

		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs found.")
			return nil
		}
		fmt.Fprintf(w, "%-36s %-10s %-28s %s\n", "RUN", "STATUS", "STAGE", "CREATED")
		rule(w, 36, 10, 28, 7)
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s %-10s %-28s %s\n", r.ID, r.Status, r.CurrentStage, r.CreatedAt)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its stage history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := runStore()
		if err != nil {
			return err
		}
		rs, err := store.Get(args[0])
		if err != nil {
			return err
		}

		events, err := historyEvents(cmd, cfg, rs.ID)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			_, err := writeJSON(cmd, struct {
				*pipeline.RunState
				Events []db.StageEvent `json:"events,omitempty"`
			}{rs, events})
			return err
		}

		w := cmd.OutOrStdout()
		printRun(w, rs)
		if len(events) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%-24s %-28s %-10s %s\n", "TIMESTAMP", "STAGE", "EVENT", "DURATION(ms)")
			rule(w, 24, 28, 10, 12)
			for _, e := range events {
				fmt.Fprintf(w, "%-24s %-28s %-10s %d\n", e.Timestamp, e.Stage, e.Event, e.DurationMs)
			}
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := runStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s.\n", args[0])
		return nil
	},
}

// historyEvents returns the stage events recorded for runID, or nil when run
// history is not configured.
func historyEvents(cmd *cobra.Command, cfg *config.Store, runID string) ([]db.StageEvent, error) {
	h := cfg.Run.RunHistory
	if h.DSN == "" {
		return nil, nil
	}
	database, err := db.Open(h.Driver, h.DSN)
	if err != nil {
		return nil, err
	}
	defer database.Close()
	return database.GetStageEvents(cmd.Context(), runID)
}

func printRun(w io.Writer, rs *pipeline.RunState) {
	fmt.Fprintf(w, "Run:     %s\n", rs.ID)
	fmt.Fprintf(w, "Status:  %s\n", rs.Status)
	fmt.Fprintf(w, "Created: %s\n", rs.CreatedAt)
	fmt.Fprintf(w, "Updated: %s\n", rs.UpdatedAt)
	if rs.Error != "" {
		fmt.Fprintf(w, "Error:   %s\n", rs.Error)
	}
	if len(rs.StageHistory) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-28s %-8s %-14s %s\n", "STAGE", "OUTCOME", "DURATION", "ERROR")
	rule(w, 28, 8, 14, 5)
	for _, h := range rs.StageHistory {
		fmt.Fprintf(w, "%-28s %-8s %-14s %s\n", h.Stage, h.Outcome, h.Duration, firstLine(h.Error))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

var errNoRuns = errors.New("no runs recorded")

func init() {
	runsListCmd.Flags().String("status", "", "Filter by status: running, completed or failed")
	runsListCmd.Flags().String("format", "text", "Output format: text or json")
	runsShowCmd.Flags().String("format", "text", "Output format: text or json")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}
