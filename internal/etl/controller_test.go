package etl

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"weather-etl/internal/config"
	"weather-etl/internal/storage"
	"weather-etl/internal/transform"
)

func noopLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type extractorStub struct {
	recs []storage.WeatherRecord
}

func (e *extractorStub) FetchOne(ctx context.Context, city config.City) *storage.WeatherRecord {
	for i := range e.recs {
		if e.recs[i].CityName == city.Name {
			return &e.recs[i]
		}
	}
	return nil
}

func (e *extractorStub) FetchAll(ctx context.Context, cities []config.City) []storage.WeatherRecord {
	recs := make([]storage.WeatherRecord, 0, len(cities))
	for _, city := range cities {
		if rec := e.FetchOne(ctx, city); rec != nil {
			recs = append(recs, *rec)
		}
	}
	return recs
}

type enricherStub struct{}

func (enricherStub) BatchEnrich(recs []storage.WeatherRecord) []storage.WeatherRecord {
	return recs
}

type loaderStub struct {
	saved    []storage.WeatherRecord
	exported []string
}

func (l *loaderStub) BatchSave(ctx context.Context, recs []storage.WeatherRecord) []int64 {
	l.saved = append(l.saved, recs...)
	ids := make([]int64, len(recs))
	for i := range recs {
		ids[i] = int64(i + 1)
	}
	return ids
}

func (l *loaderStub) ExportCSV(ctx context.Context, cityName, path string) bool {
	l.exported = append(l.exported, path)
	return true
}

func (l *loaderStub) ExportChart(ctx context.Context, cityName, path string) bool {
	return true
}

type backfillerStub struct {
	calls int
	saved int
}

func (b *backfillerStub) FetchAndSave(ctx context.Context, cityName string, startDate, endDate time.Time) int {
	b.calls++
	return b.saved
}

type statistStub struct{}

func (statistStub) Statistics(ctx context.Context, cityName string) (transform.Summary, error) {
	return transform.Summary{City: cityName, Status: transform.StatusNoData}, nil
}

func (statistStub) TemperatureTrend(ctx context.Context, cityName string) (*transform.Trend, error) {
	return nil, nil
}

var threeCities = []config.City{
	{Name: "Warsaw", Country: "PL"},
	{Name: "Berlin", Country: "DE"},
	{Name: "Paris", Country: "FR"},
}

func newTestController(extractor *extractorStub, loader *loaderStub, backfiller *backfillerStub) *Controller {
	return New(threeCities, extractor, enricherStub{}, loader, backfiller, statistStub{}, noopLogger())
}

func TestRunOncePartialFailure(t *testing.T) {
	// Paris fails to fetch; the run must persist the other two and succeed.
	extractor := &extractorStub{recs: []storage.WeatherRecord{
		{CityName: "Warsaw", Country: "PL", Timestamp: time.Now()},
		{CityName: "Berlin", Country: "DE", Timestamp: time.Now()},
	}}
	loader := &loaderStub{}
	c := newTestController(extractor, loader, &backfillerStub{})

	if !c.RunOnce(context.Background()) {
		t.Fatal("partial per-city failure must not fail the run")
	}
	if len(loader.saved) != 2 {
		t.Fatalf("expected 2 records persisted, got %d", len(loader.saved))
	}
}

func TestRunOnceEmptyExtract(t *testing.T) {
	loader := &loaderStub{}
	c := newTestController(&extractorStub{}, loader, &backfillerStub{})

	if c.RunOnce(context.Background()) {
		t.Fatal("an empty extract must fail the run")
	}
	if len(loader.saved) != 0 {
		t.Fatal("nothing should reach the loader on an empty extract")
	}
}

func TestFetchHistoricalRejectsFutureDates(t *testing.T) {
	backfiller := &backfillerStub{saved: 10}
	c := newTestController(&extractorStub{}, &loaderStub{}, backfiller)

	from := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2099, 1, 2, 0, 0, 0, 0, time.UTC)

	if c.FetchHistorical(context.Background(), "Warsaw", from, to) {
		t.Fatal("future dates must be rejected")
	}
	if backfiller.calls != 0 {
		t.Fatal("validation failure must happen before any fetch")
	}
}

func TestFetchHistoricalRejectsInvertedRange(t *testing.T) {
	backfiller := &backfillerStub{saved: 10}
	c := newTestController(&extractorStub{}, &loaderStub{}, backfiller)

	from := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	if c.FetchHistorical(context.Background(), "Warsaw", from, to) {
		t.Fatal("start after end must be rejected")
	}
	if backfiller.calls != 0 {
		t.Fatal("validation failure must happen before any fetch")
	}
}

func TestFetchHistoricalZeroPersisted(t *testing.T) {
	backfiller := &backfillerStub{saved: 0}
	c := newTestController(&extractorStub{}, &loaderStub{}, backfiller)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	if c.FetchHistorical(context.Background(), "Warsaw", from, to) {
		t.Fatal("a backfill that persisted nothing must report failure")
	}
	if backfiller.calls != 1 {
		t.Fatalf("expected exactly one fetch, got %d", backfiller.calls)
	}
}

func TestFetchHistorical(t *testing.T) {
	backfiller := &backfillerStub{saved: 24}
	c := newTestController(&extractorStub{}, &loaderStub{}, backfiller)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	if !c.FetchHistorical(context.Background(), "Warsaw", from, to) {
		t.Fatal("a backfill that persisted records must report success")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	extractor := &extractorStub{recs: []storage.WeatherRecord{
		{CityName: "Warsaw", Country: "PL", Timestamp: time.Now()},
	}}
	c := newTestController(extractor, &loaderStub{}, &backfillerStub{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, 50*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancellation")
	}
}
