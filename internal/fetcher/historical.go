package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"weather-etl/internal/config"
	"weather-etl/internal/storage"
)

const (
	dateLayout      = "2006-01-02"
	hourStampLayout = "2006-01-02 15:04:05"

	// Spans beyond a year still go out as one request; the upstream may
	// truncate or reject them, so the caller gets a warning first.
	maxUnwarnedRangeDays = 365
)

// HistoricalOptions parameterise the backfill fetcher.
type HistoricalOptions struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Historical fetches and expands date-bounded day/hour payloads.
type Historical struct {
	opts     HistoricalOptions
	logger   zerolog.Logger
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	baseURL  string
	cities   []config.City
	enricher Enricher
	saver    Saver
}

// NewHistorical constructs a backfill fetcher over the configured city list.
func NewHistorical(opts HistoricalOptions, cities []config.City, enricher Enricher, saver Saver, logger zerolog.Logger) *Historical {
	return &Historical{
		opts:     opts,
		logger:   logger.With().Str("component", "historical_fetcher").Logger(),
		httpCfg:  defaultHTTPConfig(opts.Timeout),
		circuit:  newCircuit("weather_historical"),
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		cities:   cities,
		enricher: enricher,
		saver:    saver,
	}
}

// FetchRange retrieves the whole date span in a single request. No chunking
// is performed however long the range is. A failed request is logged and
// yields nil.
func (h *Historical) FetchRange(ctx context.Context, city config.City, startDate, endDate time.Time) json.RawMessage {
	if span := endDate.Sub(startDate); span > maxUnwarnedRangeDays*24*time.Hour {
		h.logger.Warn().
			Str("city", city.Name).
			Int("days", int(span.Hours()/24)).
			Msg("historical range exceeds 365 days; requesting as a single call anyway")
	}

	startStr := startDate.Format(dateLayout)
	endStr := endDate.Format(dateLayout)

	buildRequest := func() (*http.Request, error) {
		if h.baseURL == "" {
			return nil, fmt.Errorf("weather base url not configured")
		}

		values := url.Values{}
		values.Set("unitGroup", "metric")
		values.Set("key", h.opts.APIKey)
		values.Set("contentType", "json")
		values.Set("include", "days,hours")

		endpoint := fmt.Sprintf("%s/%s/%s/%s?%s", h.baseURL, url.PathEscape(city.Name), startStr, endStr, values.Encode())
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if ua := strings.TrimSpace(h.opts.UserAgent); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		return req, nil
	}

	h.logger.Info().
		Str("city", city.Name).
		Str("from", startStr).
		Str("to", endStr).
		Msg("fetching historical data")

	resp, err := doRequestWithResilience(ctx, h.httpCfg, h.circuit, buildRequest)
	if err != nil {
		h.logger.Error().Err(err).
			Str("city", city.Name).
			Str("from", startStr).
			Str("to", endStr).
			Msg("failed to fetch historical data")
		return nil
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error().Err(err).Str("city", city.Name).Msg("failed to read historical payload")
		return nil
	}
	return payload
}

type timelinePayload struct {
	Days []timelineDay `json:"days"`
}

type timelineDay struct {
	Datetime string         `json:"datetime"`
	Hours    []timelineHour `json:"hours"`
}

type timelineHour struct {
	Datetime   string  `json:"datetime"`
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feelslike"`
	Humidity   float64 `json:"humidity"`
	Pressure   float64 `json:"pressure"`
	WindSpeed  float64 `json:"windspeed"`
	WindDir    float64 `json:"winddir"`
	Conditions string  `json:"conditions"`
	CloudCover float64 `json:"cloudcover"`
	Precip     float64 `json:"precip"`
}

// Parse expands a day/hour payload into one record per hour. A malformed
// hour entry is logged and skipped; a payload without the top-level day
// listing is logged as an error and yields an empty slice.
func (h *Historical) Parse(raw json.RawMessage, city config.City) []storage.WeatherRecord {
	recs := make([]storage.WeatherRecord, 0)
	if len(raw) == 0 {
		return recs
	}

	var payload timelinePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Error().Err(err).Str("city", city.Name).Msg("invalid historical payload")
		return recs
	}
	if payload.Days == nil {
		h.logger.Error().Str("city", city.Name).Msg("historical payload missing days listing")
		return recs
	}

	for _, day := range payload.Days {
		for _, hour := range day.Hours {
			ts, err := time.Parse(hourStampLayout, day.Datetime+" "+hour.Datetime)
			if err != nil {
				h.logger.Error().Err(err).
					Str("city", city.Name).
					Str("day", day.Datetime).
					Str("hour", hour.Datetime).
					Msg("skipping malformed hourly entry")
				continue
			}

			recs = append(recs, storage.NewWeatherRecord(storage.WeatherRecord{
				CityName:           city.Name,
				Country:            city.Country,
				Temperature:        hour.Temp,
				FeelsLike:          hour.FeelsLike,
				Humidity:           int(hour.Humidity),
				Pressure:           int(hour.Pressure),
				WindSpeed:          hour.WindSpeed,
				WindDirection:      int(hour.WindDir),
				WeatherCondition:   primaryCondition(hour.Conditions),
				WeatherDescription: hour.Conditions,
				Clouds:             int(hour.CloudCover),
				Rain1h:             positivePrecip(hour.Precip),
				Snow1h:             nil,
				Timestamp:          ts.UTC(),
			}))
		}
	}

	h.logger.Info().
		Str("city", city.Name).
		Int("records", len(recs)).
		Msg("parsed historical records")
	return recs
}

// FetchAndSave resolves the city, fetches and parses the span, and runs the
// normal enrich/load path. Returns the count actually persisted; every
// failure mode degrades to zero rather than an error.
func (h *Historical) FetchAndSave(ctx context.Context, cityName string, startDate, endDate time.Time) int {
	city, ok := h.findCity(cityName)
	if !ok {
		h.logger.Error().Str("city", cityName).Msg("city not found in configured cities")
		return 0
	}

	raw := h.FetchRange(ctx, city, startDate, endDate)
	if raw == nil {
		h.logger.Error().Str("city", cityName).Msg("no historical data retrieved")
		return 0
	}

	recs := h.Parse(raw, city)
	if len(recs) == 0 {
		h.logger.Error().Str("city", cityName).Msg("no historical records parsed")
		return 0
	}

	enriched := h.enricher.BatchEnrich(recs)
	ids := h.saver.BatchSave(ctx, enriched)

	h.logger.Info().
		Str("city", cityName).
		Int("saved", len(ids)).
		Msg("saved historical records")
	return len(ids)
}

func (h *Historical) findCity(name string) (config.City, bool) {
	for _, city := range h.cities {
		if strings.EqualFold(city.Name, name) {
			return city, true
		}
	}
	return config.City{}, false
}
