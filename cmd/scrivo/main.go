// scrivo: inject dictated text into the focused application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scrivo/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:   "scrivo",
		Short: "Text injection for dictation workflows",
		Long: `scrivo delivers transcribed text into whatever application currently
holds focus, picking the best delivery method per application and
falling back through alternatives inside a strict latency budget.

Run "scrivo serve" to keep a daemon warm; "scrivo inject" then forwards
text over the runtime socket, or runs a one-shot injection when no
daemon is up.

Config file: $XDG_CONFIG_HOME/scrivo/config.toml (see "scrivo doctor").
All keys can be overridden via SCRIVO_ environment variables.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "path to config file")

	root.AddCommand(
		newServeCmd(),
		newInjectCmd(),
		newStatusCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}
}
