package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"weather-etl/internal/config"
	"weather-etl/internal/fetcher"
	"weather-etl/internal/scheduler"
	"weather-etl/internal/storage"
	"weather-etl/internal/transform"
)

// ErrInvalidRange marks a historical date range rejected before any
// upstream call.
var ErrInvalidRange = errors.New("invalid date range")

// Enricher normalizes extracted records.
type Enricher interface {
	BatchEnrich(recs []storage.WeatherRecord) []storage.WeatherRecord
}

// Loader persists record batches and exports stored history.
type Loader interface {
	BatchSave(ctx context.Context, recs []storage.WeatherRecord) []int64
	ExportCSV(ctx context.Context, cityName, path string) bool
	ExportChart(ctx context.Context, cityName, path string) bool
}

// Backfiller runs a historical fetch-and-save for one city.
type Backfiller interface {
	FetchAndSave(ctx context.Context, cityName string, startDate, endDate time.Time) int
}

// Statist derives aggregate statistics from stored history.
type Statist interface {
	Statistics(ctx context.Context, cityName string) (transform.Summary, error)
	TemperatureTrend(ctx context.Context, cityName string) (*transform.Trend, error)
}

// Controller composes extract, transform, and load into pipeline runs and
// owns the periodic scheduling loop.
type Controller struct {
	cities     []config.City
	extractor  fetcher.CurrentFetcher
	enricher   Enricher
	loader     Loader
	backfiller Backfiller
	statist    Statist
	logger     zerolog.Logger
}

// New constructs a Controller.
func New(
	cities []config.City,
	extractor fetcher.CurrentFetcher,
	enricher Enricher,
	loader Loader,
	backfiller Backfiller,
	statist Statist,
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		cities:     cities,
		extractor:  extractor,
		enricher:   enricher,
		loader:     loader,
		backfiller: backfiller,
		statist:    statist,
		logger:     logger.With().Str("component", "etl").Logger(),
	}
}

// RunOnce drives a single extract -> transform -> load pass. Partial
// per-city or per-record loss upstream does not fail the run; only an empty
// extract does.
func (c *Controller) RunOnce(ctx context.Context) bool {
	c.logger.Info().Int("cities", len(c.cities)).Msg("starting pipeline run")

	extracted := c.extractor.FetchAll(ctx, c.cities)
	if len(extracted) == 0 {
		c.logger.Warn().Msg("no weather data extracted; run failed")
		return false
	}

	enriched := c.enricher.BatchEnrich(extracted)
	ids := c.loader.BatchSave(ctx, enriched)

	c.logger.Info().
		Int("extracted", len(extracted)).
		Int("enriched", len(enriched)).
		Int("loaded", len(ids)).
		Msg("pipeline run complete")
	return true
}

// Run executes RunOnce immediately and then on every interval, blocking
// until ctx is cancelled. A long-running pass delays the next tick rather
// than overlapping with it.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	sched := scheduler.New(scheduler.Options{
		Interval:       interval,
		RunImmediately: true,
	}, c.logger)

	return sched.Run(ctx, func(ctx context.Context) error {
		if !c.RunOnce(ctx) {
			return fmt.Errorf("pipeline run reported failure")
		}
		return nil
	})
}

// FetchHistorical validates the date range, then delegates to the
// backfiller. An invalid range is rejected before any network call.
// Succeeds only when at least one record was persisted.
func (c *Controller) FetchHistorical(ctx context.Context, cityName string, startDate, endDate time.Time) bool {
	if err := validateRange(startDate, endDate); err != nil {
		c.logger.Error().Err(err).
			Str("city", cityName).
			Str("from", startDate.Format("2006-01-02")).
			Str("to", endDate.Format("2006-01-02")).
			Msg("rejected historical fetch")
		return false
	}

	saved := c.backfiller.FetchAndSave(ctx, cityName, startDate, endDate)
	if saved == 0 {
		c.logger.Error().Str("city", cityName).Msg("historical fetch persisted no records")
		return false
	}

	c.logger.Info().Str("city", cityName).Int("saved", saved).Msg("historical fetch complete")
	return true
}

func validateRange(startDate, endDate time.Time) error {
	now := time.Now()
	if startDate.After(now) || endDate.After(now) {
		return fmt.Errorf("%w: dates cannot be in the future", ErrInvalidRange)
	}
	if startDate.After(endDate) {
		return fmt.Errorf("%w: start date is after end date", ErrInvalidRange)
	}
	return nil
}

// ExportCityData writes a city's trailing window to a CSV file.
func (c *Controller) ExportCityData(ctx context.Context, cityName, path string) bool {
	return c.loader.ExportCSV(ctx, cityName, path)
}

// ExportCityChart renders a city's trailing daily averages to a PNG file.
func (c *Controller) ExportCityChart(ctx context.Context, cityName, path string) bool {
	return c.loader.ExportChart(ctx, cityName, path)
}

// CityStatistics returns the trailing 30-day summary for a city.
func (c *Controller) CityStatistics(ctx context.Context, cityName string) (transform.Summary, error) {
	return c.statist.Statistics(ctx, cityName)
}

// CityTrend returns the 7-day temperature trend for a city, nil when there
// is not enough data.
func (c *Controller) CityTrend(ctx context.Context, cityName string) (*transform.Trend, error) {
	return c.statist.TemperatureTrend(ctx, cityName)
}
