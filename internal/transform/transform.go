package transform

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"weather-etl/internal/storage"
)

// Summary status values.
const (
	StatusSuccess = "success"
	StatusNoData  = "no_data"
)

// Trend labels. The daily-mean slope is classified against a 0.5 degree
// per-day threshold.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"

	trendThreshold = 0.5
)

const (
	statisticsWindowDays = 30
	trendWindowDays      = 7
)

// FieldStats aggregates one observed field over a window.
type FieldStats struct {
	Min float64
	Max float64
	Avg float64
}

// TemperatureStats additionally carries the sample standard deviation.
type TemperatureStats struct {
	FieldStats
	Std float64
}

// Summary describes a city's trailing 30-day statistics.
type Summary struct {
	City        string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	DataPoints  int
	Temperature TemperatureStats
	Humidity    FieldStats
	Pressure    FieldStats
	Conditions  map[string]int
}

// Trend describes a city's 7-day temperature direction.
type Trend struct {
	City       string
	Trend      string
	Slope      float64
	StartTemp  float64
	EndTemp    float64
	PeriodDays int
}

// Transformer normalizes records before loading and derives statistics from
// stored history.
type Transformer struct {
	store  storage.WeatherStore
	logger zerolog.Logger
}

// New constructs a Transformer.
func New(store storage.WeatherStore, logger zerolog.Logger) *Transformer {
	return &Transformer{
		store:  store,
		logger: logger.With().Str("component", "transformer").Logger(),
	}
}

// Enrich is the derived-field enrichment point. It is currently the
// identity and total for well-formed input; future fields must keep the
// output a valid record.
func (t *Transformer) Enrich(rec storage.WeatherRecord) (storage.WeatherRecord, error) {
	return rec, nil
}

// BatchEnrich applies Enrich to each record. A failure on one record is
// logged and the record dropped; the rest of the batch proceeds.
func (t *Transformer) BatchEnrich(recs []storage.WeatherRecord) []storage.WeatherRecord {
	processed := make([]storage.WeatherRecord, 0, len(recs))
	for _, rec := range recs {
		enriched, err := t.Enrich(rec)
		if err != nil {
			t.logger.Error().Err(err).
				Str("city", rec.CityName).
				Time("ts", rec.Timestamp).
				Msg("dropping record that failed enrichment")
			continue
		}
		processed = append(processed, enriched)
	}
	return processed
}

// Statistics computes min/max/avg over the trailing 30 days, plus the
// temperature sample standard deviation and a weather-condition frequency
// count. An empty window yields the no_data sentinel, not an error.
func (t *Transformer) Statistics(ctx context.Context, cityName string) (Summary, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -statisticsWindowDays)

	recs, err := t.store.RangeByCity(ctx, cityName, start, end)
	if err != nil {
		return Summary{}, err
	}

	if len(recs) == 0 {
		t.logger.Warn().Str("city", cityName).Msg("no data in statistics window")
		return Summary{City: cityName, Status: StatusNoData}, nil
	}

	temps := make([]float64, len(recs))
	humidity := make([]float64, len(recs))
	pressure := make([]float64, len(recs))
	conditions := make(map[string]int)
	for i, rec := range recs {
		temps[i] = rec.Temperature
		humidity[i] = float64(rec.Humidity)
		pressure[i] = float64(rec.Pressure)
		conditions[rec.WeatherCondition]++
	}

	return Summary{
		City:        cityName,
		Status:      StatusSuccess,
		PeriodStart: start,
		PeriodEnd:   end,
		DataPoints:  len(recs),
		Temperature: TemperatureStats{
			FieldStats: fieldStats(temps),
			Std:        sampleStdDev(temps),
		},
		Humidity:   fieldStats(humidity),
		Pressure:   fieldStats(pressure),
		Conditions: conditions,
	}, nil
}

// TemperatureTrend classifies the 7-day daily-mean temperature direction.
// Fewer than 2 distinct calendar days of data yields nil.
func (t *Transformer) TemperatureTrend(ctx context.Context, cityName string) (*Trend, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -trendWindowDays)

	recs, err := t.store.RangeByCity(ctx, cityName, start, end)
	if err != nil {
		return nil, err
	}

	dailyMeans := dailyMeanTemperatures(recs)
	if len(dailyMeans) < 2 {
		t.logger.Warn().Str("city", cityName).Msg("not enough data to calculate trend")
		return nil, nil
	}

	// Mean day-over-day delta across consecutive daily means.
	slope := (dailyMeans[len(dailyMeans)-1] - dailyMeans[0]) / float64(len(dailyMeans)-1)

	label := TrendStable
	switch {
	case slope > trendThreshold:
		label = TrendRising
	case slope < -trendThreshold:
		label = TrendFalling
	}

	return &Trend{
		City:       cityName,
		Trend:      label,
		Slope:      slope,
		StartTemp:  dailyMeans[0],
		EndTemp:    dailyMeans[len(dailyMeans)-1],
		PeriodDays: len(dailyMeans),
	}, nil
}

func dailyMeanTemperatures(recs []storage.WeatherRecord) []float64 {
	type acc struct {
		sum   float64
		count int
	}
	byDay := make(map[string]*acc)
	for _, rec := range recs {
		day := rec.Timestamp.UTC().Format("2006-01-02")
		if byDay[day] == nil {
			byDay[day] = &acc{}
		}
		byDay[day].sum += rec.Temperature
		byDay[day].count++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	means := make([]float64, len(days))
	for i, day := range days {
		means[i] = byDay[day].sum / float64(byDay[day].count)
	}
	return means
}

func fieldStats(values []float64) FieldStats {
	stats := FieldStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Avg = sum / float64(len(values))
	return stats
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}
