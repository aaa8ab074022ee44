package main

import (
	"log/slog"
	"os"

	"fpc-portal/internal/cli"
	"fpc-portal/internal/logger"
)

func main() {
	// Replaced by the configured logger once the config is loaded.
	slog.SetDefault(slog.New(logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.Execute(); err != nil {
		slog.Error("fpc-portal failed", "error", err)
		os.Exit(1)
	}
}
