package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/pipeline"
	"github.com/lucasnoah/mlfactory/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only run dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closeLog, err := newLogger(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeLog()

		database, cfg, err := openHistory()
		switch {
		case errors.Is(err, errNoHistory):
			logger.Info("run history not configured; dashboard shows run records only")
		case err != nil:
			return err
		default:
			defer database.Close()
		}

		store := pipeline.NewStore(pipeline.RunsDir(cfg.Run.ArtifactsRoot))
		srv := web.NewServer(store, database, cfg.Run.ModelEvaluation.MetricFileName, logger)

		addr, _ := cmd.Flags().GetString("addr")
		return srv.Start(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
