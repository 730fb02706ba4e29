package fetcher

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"weather-etl/internal/storage"
)

func noopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type enricherStub struct{}

func (enricherStub) BatchEnrich(recs []storage.WeatherRecord) []storage.WeatherRecord {
	return recs
}

type saverStub struct {
	saved []storage.WeatherRecord
}

func (s *saverStub) BatchSave(_ context.Context, recs []storage.WeatherRecord) []int64 {
	s.saved = append(s.saved, recs...)
	ids := make([]int64, len(recs))
	for i := range recs {
		ids[i] = int64(i + 1)
	}
	return ids
}
