package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"weather-etl/internal/config"
	"weather-etl/internal/storage"
)

const kelvinOffset = 273.15

// CurrentOptions parameterise the current-conditions extractor.
type CurrentOptions struct {
	APIKey    string
	BaseURL   string
	Provider  string
	Timeout   time.Duration
	UserAgent string
}

// Current fetches current conditions from the upstream weather API.
type Current struct {
	opts    CurrentOptions
	logger  zerolog.Logger
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	baseURL string
}

// NewCurrent constructs a current-conditions extractor.
func NewCurrent(opts CurrentOptions, logger zerolog.Logger) *Current {
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	return &Current{
		opts:    opts,
		logger:  logger.With().Str("component", "extractor").Logger(),
		httpCfg: defaultHTTPConfig(opts.Timeout),
		circuit: newCircuit("weather_current"),
		baseURL: baseURL,
	}
}

// FetchOne retrieves current conditions for one city. A network, HTTP, or
// payload failure is logged and yields nil; it never propagates.
func (c *Current) FetchOne(ctx context.Context, city config.City) *storage.WeatherRecord {
	rec, err := c.fetchCurrent(ctx, city)
	if err != nil {
		c.logger.Error().Err(err).
			Str("city", city.Name).
			Str("country", city.Country).
			Msg("failed to fetch current conditions")
		return nil
	}

	c.logger.Info().
		Str("city", city.Name).
		Str("country", city.Country).
		Msg("fetched current conditions")
	return rec
}

// FetchAll iterates the configured cities sequentially. Failed cities are
// skipped; the result is empty only when every city failed. Callers must not
// rely on result ordering.
func (c *Current) FetchAll(ctx context.Context, cities []config.City) []storage.WeatherRecord {
	recs := make([]storage.WeatherRecord, 0, len(cities))
	for _, city := range cities {
		if ctx.Err() != nil {
			break
		}
		if rec := c.FetchOne(ctx, city); rec != nil {
			recs = append(recs, *rec)
		}
	}

	c.logger.Info().
		Int("fetched", len(recs)).
		Int("configured", len(cities)).
		Msg("finished extracting current conditions")
	return recs
}

func (c *Current) fetchCurrent(ctx context.Context, city config.City) (*storage.WeatherRecord, error) {
	buildRequest := func() (*http.Request, error) {
		endpoint, err := c.requestURL(city)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch c.opts.Provider {
	case config.ProviderOpenWeather:
		return decodeOpenWeather(resp, city)
	default:
		return decodeVisualCrossing(resp, city)
	}
}

func (c *Current) requestURL(city config.City) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("weather base url not configured")
	}

	switch c.opts.Provider {
	case config.ProviderOpenWeather:
		values := url.Values{}
		values.Set("q", fmt.Sprintf("%s,%s", city.Name, city.Country))
		values.Set("appid", c.opts.APIKey)
		return fmt.Sprintf("%s/weather?%s", c.baseURL, values.Encode()), nil
	default:
		values := url.Values{}
		values.Set("unitGroup", "metric")
		values.Set("key", c.opts.APIKey)
		values.Set("contentType", "json")
		return fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(city.Name), values.Encode()), nil
	}
}

// decodeOpenWeather maps the main/wind/weather/clouds shape. Temperatures
// arrive in Kelvin.
func decodeOpenWeather(resp *http.Response, city config.City) (*storage.WeatherRecord, error) {
	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Clouds struct {
			All int `json:"all"`
		} `json:"clouds"`
		Rain struct {
			OneH *float64 `json:"1h"`
		} `json:"rain"`
		Snow struct {
			OneH *float64 `json:"1h"`
		} `json:"snow"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode current payload: %w", err)
	}

	var ts time.Time
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	condition := ""
	description := ""
	if len(payload.Weather) > 0 {
		condition = payload.Weather[0].Main
		description = payload.Weather[0].Description
	}

	rec := storage.NewWeatherRecord(storage.WeatherRecord{
		CityName:           city.Name,
		Country:            city.Country,
		Temperature:        payload.Main.Temp - kelvinOffset,
		FeelsLike:          payload.Main.FeelsLike - kelvinOffset,
		Humidity:           payload.Main.Humidity,
		Pressure:           payload.Main.Pressure,
		WindSpeed:          payload.Wind.Speed,
		WindDirection:      payload.Wind.Deg,
		WeatherCondition:   condition,
		WeatherDescription: description,
		Clouds:             payload.Clouds.All,
		Rain1h:             payload.Rain.OneH,
		Snow1h:             payload.Snow.OneH,
		Timestamp:          ts,
	})
	return &rec, nil
}

// decodeVisualCrossing maps the currentConditions shape, which is already metric.
func decodeVisualCrossing(resp *http.Response, city config.City) (*storage.WeatherRecord, error) {
	var payload struct {
		CurrentConditions *struct {
			DatetimeEpoch int64   `json:"datetimeEpoch"`
			Temp          float64 `json:"temp"`
			FeelsLike     float64 `json:"feelslike"`
			Humidity      float64 `json:"humidity"`
			Pressure      float64 `json:"pressure"`
			WindSpeed     float64 `json:"windspeed"`
			WindDir       float64 `json:"winddir"`
			Conditions    string  `json:"conditions"`
			CloudCover    float64 `json:"cloudcover"`
			Precip        float64 `json:"precip"`
			Snow          float64 `json:"snow"`
		} `json:"currentConditions"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode current payload: %w", err)
	}
	if payload.CurrentConditions == nil {
		return nil, fmt.Errorf("payload missing currentConditions")
	}

	current := payload.CurrentConditions

	var ts time.Time
	if current.DatetimeEpoch > 0 {
		ts = time.Unix(current.DatetimeEpoch, 0).UTC()
	}

	rec := storage.NewWeatherRecord(storage.WeatherRecord{
		CityName:           city.Name,
		Country:            city.Country,
		Temperature:        current.Temp,
		FeelsLike:          current.FeelsLike,
		Humidity:           int(current.Humidity),
		Pressure:           int(current.Pressure),
		WindSpeed:          current.WindSpeed,
		WindDirection:      int(current.WindDir),
		WeatherCondition:   primaryCondition(current.Conditions),
		WeatherDescription: current.Conditions,
		Clouds:             int(current.CloudCover),
		Rain1h:             positivePrecip(current.Precip),
		Snow1h:             positivePrecip(current.Snow),
		Timestamp:          ts,
	})
	return &rec, nil
}

// primaryCondition reduces a comma-separated conditions string to its first
// category ("Rain, Partially cloudy" -> "Rain").
func primaryCondition(conditions string) string {
	if idx := strings.Index(conditions, ","); idx >= 0 {
		conditions = conditions[:idx]
	}
	return strings.TrimSpace(conditions)
}

// positivePrecip keeps the optional precipitation fields unset when the
// upstream reports zero or nothing.
func positivePrecip(v float64) *float64 {
	if v > 0 {
		return &v
	}
	return nil
}

var _ CurrentFetcher = (*Current)(nil)
