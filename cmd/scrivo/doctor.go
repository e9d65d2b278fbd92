package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scrivo/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and injection readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			report := doctor.Run(loaded)
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			if !report.OK() {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
}
