package app

import (
	"context"
	"errors"
)

// Export writes a city's trailing window as CSV and/or a daily-average PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	controller := a.newController(store)

	if opts.CSVPath != "" {
		if !controller.ExportCityData(ctx, opts.City, opts.CSVPath) {
			return errors.New("CSV export failed; see log for cause")
		}
	}

	if opts.PNGPath != "" {
		if !controller.ExportCityChart(ctx, opts.City, opts.PNGPath) {
			return errors.New("chart export failed; see log for cause")
		}
	}

	return nil
}
