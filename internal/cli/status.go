package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
	"github.com/lucasnoah/mlfactory/internal/stage"
)

// statusReport is the latest run plus the artifacts it left behind.
type statusReport struct {
	Run              *pipeline.RunState `json:"run"`
	ValidationStatus *bool              `json:"validation_status,omitempty"`
	Metrics          *stage.Report      `json:"metrics,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent run, validation status and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := runStore()
		if err != nil {
			return err
		}
		runs, err := store.List("")
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return errNoRuns
		}
		report := statusReport{Run: &runs[len(runs)-1]}

		if p := cfg.Run.DataValidation.StatusFile; pipeline.FileExists(p) {
			if ok, err := stage.ReadStatus(p); err == nil {
				report.ValidationStatus = &ok
			}
		}
		if p := cfg.Run.ModelEvaluation.MetricFileName; pipeline.FileExists(p) {
			var m stage.Report
			if err := pipeline.ReadJSON(p, &m); err == nil {
				report.Metrics = &m
			}
		}

		if handled, err := writeJSON(cmd, report); handled {
			return err
		}

		w := cmd.OutOrStdout()
		printRun(w, report.Run)
		if report.ValidationStatus != nil {
			fmt.Fprintf(w, "\nValidation status: %t\n", *report.ValidationStatus)
		}
		if m := report.Metrics; m != nil {
			fmt.Fprintf(w, "\nRMSE: %.4f  MAE: %.4f  R2: %.4f\n", m.RMSE, m.MAE, m.R2)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("format", "text", "Output format: text or json")
}
