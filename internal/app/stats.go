package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"weather-etl/internal/transform"
)

// Stats prints the trailing 30-day summary and 7-day trend for a city.
func (a *App) Stats(ctx context.Context, opts StatsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	controller := a.newController(store)

	summary, err := controller.CityStatistics(ctx, opts.City)
	if err != nil {
		return err
	}

	if summary.Status == transform.StatusNoData {
		fmt.Fprintf(os.Stdout, "no data for %s\n", opts.City)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "City:\t%s\n", summary.City)
	fmt.Fprintf(writer, "Period:\t%s to %s\n",
		summary.PeriodStart.Format(time.DateOnly),
		summary.PeriodEnd.Format(time.DateOnly))
	fmt.Fprintf(writer, "Data points:\t%d\n", summary.DataPoints)
	fmt.Fprintf(writer, "Temperature:\tmin %.1f  max %.1f  avg %.1f  std %.1f\n",
		summary.Temperature.Min, summary.Temperature.Max, summary.Temperature.Avg, summary.Temperature.Std)
	fmt.Fprintf(writer, "Humidity:\tmin %.0f  max %.0f  avg %.0f\n",
		summary.Humidity.Min, summary.Humidity.Max, summary.Humidity.Avg)
	fmt.Fprintf(writer, "Pressure:\tmin %.0f  max %.0f  avg %.0f\n",
		summary.Pressure.Min, summary.Pressure.Max, summary.Pressure.Avg)

	conditions := make([]string, 0, len(summary.Conditions))
	for condition := range summary.Conditions {
		conditions = append(conditions, condition)
	}
	sort.Strings(conditions)
	for _, condition := range conditions {
		fmt.Fprintf(writer, "Condition %q:\t%d\n", condition, summary.Conditions[condition])
	}

	trend, err := controller.CityTrend(ctx, opts.City)
	if err != nil {
		return err
	}
	if trend != nil {
		fmt.Fprintf(writer, "7-day trend:\t%s (%.2f C/day over %d days, %.1f -> %.1f)\n",
			trend.Trend, trend.Slope, trend.PeriodDays, trend.StartTemp, trend.EndTemp)
	}

	return writer.Flush()
}
