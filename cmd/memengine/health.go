package main

import (
	"context"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report aggregated subsystem health",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer func() { _ = eng.Shutdown(context.Background()) }()

		return printJSON(eng.Health(context.Background()))
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
