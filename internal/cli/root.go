package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/config"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var docPaths = config.DefaultPaths()

var rootCmd = &cobra.Command{
	Use:   "mlfactory",
	Short: "mlfactory: a five-stage tabular ML pipeline",
	Long: `mlfactory ingests a tabular dataset, validates its columns against a schema,
engineers and scales features, trains an elastic-net regression model and
evaluates it on held-out data.

Run with no subcommand to execute all five stages in order. Each stage writes
its artifacts under artifacts_root; run records go to <artifacts_root>/runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runPipeline,
}

// Execute runs the root command. ctx is canceled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&docPaths.Config, "config", docPaths.Config, "path to the run configuration document")
	rootCmd.PersistentFlags().StringVar(&docPaths.Params, "params", docPaths.Params, "path to the hyperparameters document")
	rootCmd.PersistentFlags().StringVar(&docPaths.Schema, "schema", docPaths.Schema, "path to the schema document")
	rootCmd.Flags().String("format", "text", "Output format: text or json")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
}
