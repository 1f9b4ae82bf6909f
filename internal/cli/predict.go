package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/dataset"
	"github.com/lucasnoah/mlfactory/internal/stage"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score a CSV of new rows with the trained model",
	Long: `Score every row of --input with the model written by the trainer stage.

Rows get the same log and ratio features as the training data. The input is
written back with a predicted_<target> column appended, to --output or stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}

		logger, closeLog, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := config.Load(docPaths)
		if err != nil {
			return err
		}
		cfg, err := config.NewBuilder(store, logger).ResolvePrediction()
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("model"); path != "" {
			cfg.ModelPath = path
		}

		predictor, err := stage.NewPredictor(cfg, logger)
		if err != nil {
			return err
		}
		frame, err := dataset.ReadCSV(input)
		if err != nil {
			return err
		}
		pred, err := predictor.Predict(frame)
		if err != nil {
			return err
		}

		if handled, err := writeJSON(cmd, pred); handled {
			return err
		}
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			if err := dataset.WriteCSV(output, frame); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d prediction(s) to %s\n", len(pred), output)
			return nil
		}
		return dataset.Encode(cmd.OutOrStdout(), frame)
	},
}

func init() {
	predictCmd.Flags().String("input", "", "CSV file of rows to score")
	predictCmd.Flags().String("output", "", "Write scored rows here instead of stdout")
	predictCmd.Flags().String("model", "", "Model file (overrides model_evaluation.model_path)")
	predictCmd.Flags().String("format", "text", "Output format: text (CSV) or json (predictions only)")
}
