package load

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"weather-etl/internal/storage"
)

type stubStore struct {
	recs     []storage.WeatherRecord
	averages []storage.DailyAverage
	nextID   int64
	failing  bool
}

func (s *stubStore) InsertRecord(ctx context.Context, rec storage.WeatherRecord) (int64, error) {
	if s.failing {
		return 0, errors.New("insert failed")
	}
	s.nextID++
	rec.ID = s.nextID
	s.recs = append(s.recs, rec)
	return s.nextID, nil
}

func (s *stubStore) BatchInsert(ctx context.Context, recs []storage.WeatherRecord) []int64 {
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		id, err := s.InsertRecord(ctx, rec)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *stubStore) LatestByCity(ctx context.Context, cityName string) (*storage.WeatherRecord, error) {
	return nil, nil
}

func (s *stubStore) RangeByCity(ctx context.Context, cityName string, start, end time.Time) ([]storage.WeatherRecord, error) {
	out := make([]storage.WeatherRecord, 0)
	for _, rec := range s.recs {
		if rec.CityName == cityName {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *stubStore) DailyAverageTemperature(ctx context.Context, cityName string, days int) ([]storage.DailyAverage, error) {
	return s.averages, nil
}

func (s *stubStore) DistinctCities(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubStore) CountRecords(ctx context.Context) (int64, error) {
	return int64(len(s.recs)), nil
}

var _ storage.WeatherStore = (*stubStore)(nil)

func noopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func seedStore(t *testing.T, store *stubStore, city string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		rain := 0.4
		_, err := store.InsertRecord(context.Background(), storage.WeatherRecord{
			CityName:           city,
			Country:            "PL",
			Temperature:        10 + float64(i),
			FeelsLike:          9,
			Humidity:           70,
			Pressure:           1008,
			WindSpeed:          3.2,
			WindDirection:      120,
			WeatherCondition:   "Rain",
			WeatherDescription: "Rain, Overcast",
			Clouds:             90,
			Rain1h:             &rain,
			Timestamp:          time.Now().UTC().Add(-time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestExportCSVNoData(t *testing.T) {
	l := New(&stubStore{}, 0, noopLogger())
	path := filepath.Join(t.TempDir(), "out.csv")

	if l.ExportCSV(context.Background(), "Nowhere", path) {
		t.Fatal("export with no data must report failure")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file should be written when there is no data")
	}
}

func TestExportCSV(t *testing.T) {
	store := &stubStore{}
	seedStore(t, store, "Warsaw", 5)

	l := New(store, 0, noopLogger())
	path := filepath.Join(t.TempDir(), "out.csv")

	if !l.ExportCSV(context.Background(), "Warsaw", path) {
		t.Fatal("export with data must succeed")
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected header plus 5 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][14] != "timestamp" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "Warsaw" || rows[1][12] != "0.4" {
		t.Fatalf("unexpected data row: %v", rows[1])
	}
	// snow_1h was never set and must serialize empty.
	if rows[1][13] != "" {
		t.Fatalf("expected empty snow column, got %q", rows[1][13])
	}
}

func TestExportCSVOverwrites(t *testing.T) {
	store := &stubStore{}
	seedStore(t, store, "Warsaw", 2)

	l := New(store, 0, noopLogger())
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("stale content\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !l.ExportCSV(context.Background(), "Warsaw", path) {
		t.Fatal("export must succeed")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:2]) == "st" {
		t.Fatal("existing file must be overwritten")
	}
}

func TestExportChartNotEnoughData(t *testing.T) {
	store := &stubStore{averages: []storage.DailyAverage{{Date: time.Now(), AvgTemperature: 4}}}
	l := New(store, 0, noopLogger())
	path := filepath.Join(t.TempDir(), "out.png")

	if l.ExportChart(context.Background(), "Warsaw", path) {
		t.Fatal("a single data point cannot be charted")
	}
}

func TestBatchSavePartialSuccess(t *testing.T) {
	store := &stubStore{}
	l := New(store, 0, noopLogger())

	recs := []storage.WeatherRecord{
		{CityName: "Warsaw", Timestamp: time.Now()},
		{CityName: "Berlin", Timestamp: time.Now()},
	}

	ids := l.BatchSave(context.Background(), recs)
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}

	store.failing = true
	ids = l.BatchSave(context.Background(), recs)
	if len(ids) != 0 {
		t.Fatalf("failing store should yield no ids, got %d", len(ids))
	}
}

func TestSavePropagatesError(t *testing.T) {
	l := New(&stubStore{failing: true}, 0, noopLogger())

	if _, err := l.Save(context.Background(), storage.WeatherRecord{CityName: "Warsaw"}); err == nil {
		t.Fatal("single save must propagate storage errors")
	}
}
