package fetcher

import (
	"context"

	"weather-etl/internal/config"
	"weather-etl/internal/storage"
)

// CurrentFetcher retrieves current conditions for configured cities.
// Per-city failures are absorbed: a failed city yields no record, never an
// aborted batch.
type CurrentFetcher interface {
	FetchOne(ctx context.Context, city config.City) *storage.WeatherRecord
	FetchAll(ctx context.Context, cities []config.City) []storage.WeatherRecord
}

// Enricher normalizes a batch of records before loading.
type Enricher interface {
	BatchEnrich(recs []storage.WeatherRecord) []storage.WeatherRecord
}

// Saver persists a batch of records, returning the ids that succeeded.
type Saver interface {
	BatchSave(ctx context.Context, recs []storage.WeatherRecord) []int64
}
