package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mlfactory/internal/config"
	"github.com/lucasnoah/mlfactory/internal/db"
)

var errNoHistory = errors.New("run_history.dsn is not configured")

// openHistory loads the documents and opens the run history database they
// name. The caller closes the returned DB.
func openHistory() (*db.DB, *config.Store, error) {
	store, err := config.Load(docPaths)
	if err != nil {
		return nil, nil, err
	}
	h := store.Run.RunHistory
	if h.DSN == "" {
		return nil, store, errNoHistory
	}
	database, err := db.Open(h.Driver, h.DSN)
	if err != nil {
		return nil, store, err
	}
	return database, store, nil
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Run history database management",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply run history schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database.\n", database.Driver())
		return nil
	},
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate run history tables (destructive!)",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, _, err := openHistory()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Run history reset.")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbResetCmd)
}
