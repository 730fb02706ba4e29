package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"weather-etl/internal/app"
)

var (
	exportCity    string
	exportCSVPath string
	exportPNGPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a city's trailing 30 days as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCity == "" {
			return fmt.Errorf("--city must be provided")
		}

		csvPath := exportCSVPath
		if csvPath == "" && exportPNGPath == "" {
			csvPath = getApp().Config.Export.DefaultPath
		}

		opts := app.ExportOptions{
			City:    exportCity,
			CSVPath: csvPath,
			PNGPath: exportPNGPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCity, "city", "", "City name to export")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data (defaults to config when no --png given)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write a daily-average temperature chart")
}
