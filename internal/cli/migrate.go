package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"fpc-portal/internal/app"
	"fpc-portal/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the session and audit tables, then exit",
	Long: `Apply the schema for the configured STORAGE_DRIVER. With postgres this
creates portal_sessions and audit_entries; with sqlite it creates the session
table in SQLITE_PATH. The memory driver has nothing to migrate.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, closeLog, err := setup()
		if err != nil {
			return err
		}
		defer closeLog()

		if cfg.StorageDriver == config.StorageDriverMemory {
			slog.Info("memory storage has no schema")
			return nil
		}

		if err := app.Migrate(cmd.Context(), cfg); err != nil {
			return err
		}
		slog.Info("schema ready", "driver", cfg.StorageDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
