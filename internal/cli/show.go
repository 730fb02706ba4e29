package cli

import (
	"github.com/spf13/cobra"

	"weather-etl/internal/app"
)

var showCity string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the latest stored observation per city",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{City: showCity})
	},
}

func init() {
	showCmd.Flags().StringVar(&showCity, "city", "", "Limit output to one city")
}
