package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/logging"
	"github.com/lucasnoah/mlfactory/internal/orchestrator"
	"github.com/lucasnoah/mlfactory/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all five pipeline stages (same as no subcommand)",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	// Keep stdout parseable when it carries the JSON result.
	logOut := cmd.OutOrStdout()
	if format == "json" {
		logOut = cmd.ErrOrStderr()
	}
	logger, closeLog, err := newLogger(logOut)
	if err != nil {
		return err
	}
	defer closeLog()

	orch := orchestrator.NewOrchestrator(orchestrator.Options{
		Paths:   docPaths,
		Logger:  logger,
		Fetcher: source.NewFetcher(logger),
	})
	result, runErr := orch.Run(cmd.Context())

	if format == "json" && result != nil {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return runErr
}

// newLogger builds the process logger, writing to the log file and to w.
func newLogger(w io.Writer) (*slog.Logger, func() error, error) {
	opts := logging.OptionsFromEnv()
	opts.Stdout = w
	return logging.New(opts)
}

func init() {
	runCmd.Flags().String("format", "text", "Output format: text or json")
}
