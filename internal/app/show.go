package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"weather-etl/internal/storage"
)

// Show prints the latest stored observation per city.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cities := []string{opts.City}
	if opts.City == "" {
		cities, err = store.DistinctCities(ctx)
		if err != nil {
			return err
		}
	}
	if len(cities) == 0 {
		fmt.Fprintln(os.Stdout, "no records found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "City\tTime (UTC)\tTemp\tFeels\tHum%\thPa\tWind\tCondition")

	shown := 0
	for _, city := range cities {
		rec, err := store.LatestByCity(ctx, city)
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		printRecord(writer, *rec)
		shown++
	}
	writer.Flush()

	if shown == 0 {
		fmt.Fprintln(os.Stdout, "no records found")
		return nil
	}

	total, err := store.CountRecords(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%d records stored in total\n", total)
	return nil
}

func printRecord(writer *tabwriter.Writer, rec storage.WeatherRecord) {
	fmt.Fprintf(
		writer,
		"%s\t%s\t%.1f\t%.1f\t%d\t%d\t%.1f\t%s\n",
		rec.CityName,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.Temperature,
		rec.FeelsLike,
		rec.Humidity,
		rec.Pressure,
		rec.WindSpeed,
		rec.WeatherCondition,
	)
}
