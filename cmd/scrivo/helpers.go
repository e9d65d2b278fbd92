package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"scrivo/internal/config"
	"scrivo/internal/logging"
)

// loadConfig reads the config resolved from --config/XDG and prints
// non-fatal warnings to stderr.
func loadConfig(cmd *cobra.Command) (config.Loaded, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path, _ = cmd.InheritedFlags().GetString("config")
	}

	loaded, err := config.Load(path)
	if err != nil {
		return config.Loaded{}, err
	}
	for _, w := range loaded.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	return loaded, nil
}

// terminalLogger builds the interactive logger from the loaded config.
func terminalLogger(cfg config.Config) *slog.Logger {
	return logging.Terminal(cfg.Log.Level, cfg.Log.Format)
}
