package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fpc-portal/internal/config"
	"fpc-portal/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fpc-portal",
	Short: "Web portal for FPC registration and management",
	Long: `fpc-portal serves the FPC registration and management portal. It signs
users in against the FPC API, keeps their sessions server-side and renders the
dashboard, FPO registry, approvals and agri-business pages.

Running it without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and installs the process logger. The returned
// func flushes and closes the log file.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, closeLog, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	slog.SetDefault(log)

	return cfg, func() { _ = closeLog() }, nil
}
