package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrivo/internal/app"
	"scrivo/internal/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the injection daemon",
		Long: `Starts the long-lived daemon: connects the accessibility bus, detects
available injection methods, pre-warms consent-gated sessions, and
answers inject/status/pause/resume commands on the runtime socket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logRuntime, err := logging.New(loaded.Config.Log.Level)
			if err != nil {
				return fmt.Errorf("setup logging: %w", err)
			}
			defer func() { _ = logRuntime.Close() }()

			logger := logRuntime.Logger
			logger.Info("daemon starting", "config", loaded.Path, "log", logRuntime.Path)

			svc, err := app.New(cmd.Context(), loaded, logger)
			if err != nil {
				logger.Error("stack build failed", "error", err.Error())
				return err
			}
			defer func() { _ = svc.Close() }()

			if err := svc.Serve(cmd.Context()); err != nil {
				logger.Error("daemon stopped", "error", err.Error())
				return err
			}
			logger.Info("daemon stopped")
			return nil
		},
	}
}
