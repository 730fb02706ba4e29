package cli

import (
	"github.com/spf13/cobra"
)

var runInterval int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the periodic ETL loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context(), runInterval)
	},
}

func init() {
	runCmd.Flags().IntVar(&runInterval, "interval", 0, "Seconds between runs (defaults to config)")
}
