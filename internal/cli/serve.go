package cli

import (
	"github.com/spf13/cobra"

	"fpc-portal/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal web server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	return application.Run(cfg.SessionPurgeSchedule)
}
