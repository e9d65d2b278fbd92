package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrivo/internal/app"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, handled, err := app.Forward(cmd.Context(), "status", "")
			if !handled {
				fmt.Fprintln(cmd.OutOrStdout(), "idle (no daemon)")
				return nil
			}
			if err != nil {
				return err
			}
			if resp.Message != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.State, resp.Message)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), resp.State)
			}
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Suppress injection until resume",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return forwardOrFail(cmd, "pause") },
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Lift a pause",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return forwardOrFail(cmd, "resume") },
	}
}

func forwardOrFail(cmd *cobra.Command, command string) error {
	resp, handled, err := app.Forward(cmd.Context(), command, "")
	if !handled {
		return fmt.Errorf("no running scrivo daemon")
	}
	if err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	}
	return nil
}
