package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/mlfactory/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate and inspect the configuration documents",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the run configuration, hyperparameters and schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(docPaths)
		if err != nil {
			return err
		}

		errs := config.Validate(store)
		if len(errs) == 0 {
			cmd.Println("Configuration is valid.")
			return nil
		}

		cmd.Println("Validation errors:")
		for _, e := range errs {
			cmd.Printf("  - %s\n", e)
		}
		return fmt.Errorf("config has %d validation error(s)", len(errs))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the parsed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Load(docPaths)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(map[string]interface{}{
			"config": store.Run,
			"params": store.Params,
			"schema": store.Schema,
		})
		if err != nil {
			return fmt.Errorf("marshalling config: %w", err)
		}

		cmd.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
