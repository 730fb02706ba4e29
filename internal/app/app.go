package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"weather-etl/internal/config"
	"weather-etl/internal/etl"
	"weather-etl/internal/fetcher"
	"weather-etl/internal/load"
	"weather-etl/internal/storage"
	"weather-etl/internal/transform"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool, a.Logger)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newController(store *storage.Store) *etl.Controller {
	extractor := fetcher.NewCurrent(fetcher.CurrentOptions{
		APIKey:    a.Config.Weather.APIKey,
		BaseURL:   a.Config.Weather.BaseURL,
		Provider:  a.Config.Weather.Provider,
		Timeout:   a.Config.Weather.RequestTimeout,
		UserAgent: a.Config.Weather.UserAgent,
	}, a.Logger)

	transformer := transform.New(store, a.Logger)
	loader := load.New(store, a.Config.Export.WindowDays, a.Logger)

	historical := fetcher.NewHistorical(fetcher.HistoricalOptions{
		APIKey:    a.Config.Weather.APIKey,
		BaseURL:   a.Config.Weather.BaseURL,
		Timeout:   a.Config.Weather.RequestTimeout,
		UserAgent: a.Config.Weather.UserAgent,
	}, a.Config.Cities, transformer, loader, a.Logger)

	return etl.New(a.Config.Cities, extractor, transformer, loader, historical, transformer, a.Logger)
}

// Run executes the periodic ETL loop until interrupted.
func (a *App) Run(ctx context.Context, intervalOverride int) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	interval := a.Config.Scheduler.Interval()
	if intervalOverride > 0 {
		interval = time.Duration(intervalOverride) * time.Second
	}

	controller := a.newController(store)

	a.Logger.Info().Dur("interval", interval).Msg("starting periodic ETL")
	err = controller.Run(ctx, interval)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("ETL loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("ETL loop stopped")
	return nil
}

// RunOnce executes a single pipeline pass.
func (a *App) RunOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	controller := a.newController(store)
	if !controller.RunOnce(ctx) {
		return errors.New("pipeline run failed")
	}
	return nil
}

// BackfillOptions configure the historical backfill job.
type BackfillOptions struct {
	City string
	From time.Time
	To   time.Time
}

// ExportOptions hold parameters for exporting stored history.
type ExportOptions struct {
	City    string
	CSVPath string
	PNGPath string
}

// StatsOptions configure the stats command.
type StatsOptions struct {
	City string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	City string
}
