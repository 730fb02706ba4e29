package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"weather-etl/internal/app"
)

var statsCity string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display 30-day statistics and the 7-day trend for a city",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsCity == "" {
			return fmt.Errorf("--city must be provided")
		}

		return getApp().Stats(cmd.Context(), app.StatsOptions{City: statsCity})
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsCity, "city", "", "City name to summarise")
}
