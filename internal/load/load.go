package load

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"weather-etl/internal/storage"
)

const defaultWindowDays = 30

// Loader persists pipeline output and exports stored history.
type Loader struct {
	store      storage.WeatherStore
	windowDays int
	logger     zerolog.Logger
}

// New constructs a Loader over the given store. windowDays bounds the
// trailing export window; non-positive values fall back to 30 days.
func New(store storage.WeatherStore, windowDays int, logger zerolog.Logger) *Loader {
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	return &Loader{
		store:      store,
		windowDays: windowDays,
		logger:     logger.With().Str("component", "loader").Logger(),
	}
}

// Save persists one record. A storage failure propagates to the caller.
func (l *Loader) Save(ctx context.Context, rec storage.WeatherRecord) (int64, error) {
	id, err := l.store.InsertRecord(ctx, rec)
	if err != nil {
		l.logger.Error().Err(err).Str("city", rec.CityName).Msg("failed to save record")
		return 0, err
	}

	l.logger.Info().Str("city", rec.CityName).Int64("id", id).Msg("saved weather record")
	return id, nil
}

// BatchSave persists each record independently and returns the ids that
// succeeded. Individual failures are logged inside the store and reflected
// only in the output cardinality.
func (l *Loader) BatchSave(ctx context.Context, recs []storage.WeatherRecord) []int64 {
	ids := l.store.BatchInsert(ctx, recs)
	l.logger.Info().
		Int("saved", len(ids)).
		Int("attempted", len(recs)).
		Msg("saved weather record batch")
	return ids
}

// ExportCSV writes a city's trailing window to a delimited file,
// overwriting any existing file. Returns false, writing nothing, when the
// window is empty or the write fails.
func (l *Loader) ExportCSV(ctx context.Context, cityName, path string) bool {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -l.windowDays)

	recs, err := l.store.RangeByCity(ctx, cityName, start, end)
	if err != nil {
		l.logger.Error().Err(err).Str("city", cityName).Msg("failed to read data for export")
		return false
	}
	if len(recs) == 0 {
		l.logger.Warn().Str("city", cityName).Msg("no data to export")
		return false
	}

	if err := writeRecordsCSV(path, recs); err != nil {
		l.logger.Error().Err(err).Str("city", cityName).Str("path", path).Msg("failed to write export file")
		return false
	}

	l.logger.Info().Str("city", cityName).Str("path", path).Int("records", len(recs)).Msg("exported data")
	return true
}

// ExportChart renders a city's daily average temperature over the trailing
// window as a PNG line chart. Returns false when the window is empty or rendering fails.
func (l *Loader) ExportChart(ctx context.Context, cityName, path string) bool {
	averages, err := l.store.DailyAverageTemperature(ctx, cityName, l.windowDays)
	if err != nil {
		l.logger.Error().Err(err).Str("city", cityName).Msg("failed to read daily averages for chart")
		return false
	}
	if len(averages) < 2 {
		l.logger.Warn().Str("city", cityName).Msg("not enough data to render chart")
		return false
	}

	if err := writeAveragesPNG(path, cityName, averages); err != nil {
		l.logger.Error().Err(err).Str("city", cityName).Str("path", path).Msg("failed to render chart")
		return false
	}

	l.logger.Info().Str("city", cityName).Str("path", path).Int("days", len(averages)).Msg("exported chart")
	return true
}

func writeRecordsCSV(path string, recs []storage.WeatherRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"id", "city_name", "country", "temperature", "feels_like",
		"humidity", "pressure", "wind_speed", "wind_direction",
		"weather_condition", "weather_description", "clouds",
		"rain_1h", "snow_1h", "timestamp",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range recs {
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CityName,
			rec.Country,
			formatFloat(rec.Temperature),
			formatFloat(rec.FeelsLike),
			strconv.Itoa(rec.Humidity),
			strconv.Itoa(rec.Pressure),
			formatFloat(rec.WindSpeed),
			strconv.Itoa(rec.WindDirection),
			rec.WeatherCondition,
			rec.WeatherDescription,
			strconv.Itoa(rec.Clouds),
			formatOptionalFloat(rec.Rain1h),
			formatOptionalFloat(rec.Snow1h),
			rec.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeAveragesPNG(path, cityName string, averages []storage.DailyAverage) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(averages))
	y := make([]float64, len(averages))
	for i, avg := range averages {
		x[i] = avg.Date
		y[i] = avg.AvgTemperature
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Avg temperature (C)",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    cityName,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
