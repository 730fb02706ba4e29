package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertRecordSQL = `INSERT INTO weather_records (
        city_name,
        country,
        temperature,
        feels_like,
        humidity,
        pressure,
        wind_speed,
        wind_direction,
        weather_condition,
        weather_description,
        clouds,
        rain_1h,
        snow_1h,
        ts
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
    )
    RETURNING id;`

	latestByCitySQL = `SELECT
        id,
        city_name,
        country,
        temperature,
        feels_like,
        humidity,
        pressure,
        wind_speed,
        wind_direction,
        weather_condition,
        weather_description,
        clouds,
        rain_1h,
        snow_1h,
        ts
    FROM weather_records
    WHERE city_name = $1
    ORDER BY ts DESC
    LIMIT 1;`

	rangeByCitySQL = `SELECT
        id,
        city_name,
        country,
        temperature,
        feels_like,
        humidity,
        pressure,
        wind_speed,
        wind_direction,
        weather_condition,
        weather_description,
        clouds,
        rain_1h,
        snow_1h,
        ts
    FROM weather_records
    WHERE city_name = $1
      AND ts >= $2
      AND ts <= $3
    ORDER BY ts;`

	dailyAverageSQL = `SELECT
        (ts AT TIME ZONE 'UTC')::date AS day,
        AVG(temperature) AS avg_temp
    FROM weather_records
    WHERE city_name = $1
      AND ts >= $2
      AND ts <= $3
    GROUP BY day
    ORDER BY day;`

	distinctCitiesSQL = `SELECT DISTINCT city_name FROM weather_records ORDER BY city_name;`

	countRecordsSQL = `SELECT COUNT(*) FROM weather_records;`
)

// WeatherStore defines persistence operations over weather observations.
type WeatherStore interface {
	InsertRecord(ctx context.Context, rec WeatherRecord) (int64, error)
	BatchInsert(ctx context.Context, recs []WeatherRecord) []int64
	LatestByCity(ctx context.Context, cityName string) (*WeatherRecord, error)
	RangeByCity(ctx context.Context, cityName string, start, end time.Time) ([]WeatherRecord, error)
	DailyAverageTemperature(ctx context.Context, cityName string, days int) ([]DailyAverage, error)
	DistinctCities(ctx context.Context) ([]string, error)
	CountRecords(ctx context.Context) (int64, error)
}

// Store provides pgx-backed access to weather observations.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger.With().Str("component", "storage").Logger()}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertRecord persists one observation and returns the assigned id.
// A failed insert propagates to the caller; retries are the caller's concern.
func (s *Store) InsertRecord(ctx context.Context, rec WeatherRecord) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var rain, snow interface{}
	if rec.Rain1h != nil {
		rain = *rec.Rain1h
	}
	if rec.Snow1h != nil {
		snow = *rec.Snow1h
	}

	var id int64
	scanErr := pool.QueryRow(ctx, insertRecordSQL,
		rec.CityName,
		rec.Country,
		rec.Temperature,
		rec.FeelsLike,
		rec.Humidity,
		rec.Pressure,
		rec.WindSpeed,
		rec.WindDirection,
		rec.WeatherCondition,
		rec.WeatherDescription,
		rec.Clouds,
		rain,
		snow,
		rec.Timestamp,
	).Scan(&id)
	if scanErr != nil {
		return 0, fmt.Errorf("insert weather record: %w", scanErr)
	}
	return id, nil
}

// BatchInsert persists each record independently. A failure on one record is
// logged and skipped; only the ids that succeeded are returned. Each insert
// commits on its own, so a partially written batch stays written.
func (s *Store) BatchInsert(ctx context.Context, recs []WeatherRecord) []int64 {
	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		id, err := s.InsertRecord(ctx, rec)
		if err != nil {
			s.logger.Error().Err(err).
				Str("city", rec.CityName).
				Time("ts", rec.Timestamp).
				Msg("failed to insert record in batch")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// LatestByCity returns the most recent observation for a city, or nil when
// the city has no stored data.
func (s *Store) LatestByCity(ctx context.Context, cityName string) (*WeatherRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, latestByCitySQL, cityName)
	if queryErr != nil {
		return nil, fmt.Errorf("latest by city: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rec, scanErr := scanWeatherRecord(rows)
	if scanErr != nil {
		return nil, scanErr
	}
	return &rec, nil
}

// RangeByCity lists observations with start <= ts <= end, ascending by timestamp.
func (s *Store) RangeByCity(ctx context.Context, cityName string, start, end time.Time) ([]WeatherRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, rangeByCitySQL, cityName, start, end)
	if queryErr != nil {
		return nil, fmt.Errorf("range by city: %w", queryErr)
	}
	defer rows.Close()

	recs := make([]WeatherRecord, 0)
	for rows.Next() {
		rec, scanErr := scanWeatherRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		recs = append(recs, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return recs, nil
}

// DailyAverageTemperature groups the trailing window by calendar date and
// averages temperature per day.
func (s *Store) DailyAverageTemperature(ctx context.Context, cityName string, days int) ([]DailyAverage, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	rows, queryErr := pool.Query(ctx, dailyAverageSQL, cityName, start, end)
	if queryErr != nil {
		return nil, fmt.Errorf("daily average temperature: %w", queryErr)
	}
	defer rows.Close()

	averages := make([]DailyAverage, 0)
	for rows.Next() {
		var avg DailyAverage
		if err := rows.Scan(&avg.Date, &avg.AvgTemperature); err != nil {
			return nil, err
		}
		averages = append(averages, avg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return averages, nil
}

// DistinctCities lists city names that have at least one stored record.
func (s *Store) DistinctCities(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, distinctCitiesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("distinct cities: %w", queryErr)
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cities = append(cities, name)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return cities, nil
}

// CountRecords counts stored observations.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countRecordsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count records: %w", scanErr)
	}
	return count, nil
}

func scanWeatherRecord(rows pgx.Rows) (WeatherRecord, error) {
	var (
		rec  WeatherRecord
		rain sql.NullFloat64
		snow sql.NullFloat64
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.CityName,
		&rec.Country,
		&rec.Temperature,
		&rec.FeelsLike,
		&rec.Humidity,
		&rec.Pressure,
		&rec.WindSpeed,
		&rec.WindDirection,
		&rec.WeatherCondition,
		&rec.WeatherDescription,
		&rec.Clouds,
		&rain,
		&snow,
		&rec.Timestamp,
	); err != nil {
		return WeatherRecord{}, err
	}

	if rain.Valid {
		value := rain.Float64
		rec.Rain1h = &value
	}
	if snow.Valid {
		value := snow.Float64
		rec.Snow1h = &value
	}

	return rec, nil
}

var _ WeatherStore = (*Store)(nil)
