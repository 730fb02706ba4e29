package storage

import (
	"context"
	"fmt"
)

// Duplicate (city_name, ts) rows are admitted on purpose: repeated fetches
// within one interval legally coexist. A uniqueness constraint would turn
// double-fires into silent upserts and skew batch accounting.
const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS weather_records (
        id                  BIGSERIAL PRIMARY KEY,
        city_name           VARCHAR(50) NOT NULL,
        country             VARCHAR(2) NOT NULL,
        temperature         DOUBLE PRECISION NOT NULL,
        feels_like          DOUBLE PRECISION NOT NULL,
        humidity            INTEGER NOT NULL,
        pressure            INTEGER NOT NULL,
        wind_speed          DOUBLE PRECISION NOT NULL,
        wind_direction      INTEGER NOT NULL,
        weather_condition   VARCHAR(50) NOT NULL,
        weather_description VARCHAR(200) NOT NULL,
        clouds              INTEGER NOT NULL,
        rain_1h             DOUBLE PRECISION,
        snow_1h             DOUBLE PRECISION,
        ts                  TIMESTAMPTZ NOT NULL
    );`

	createIndexSQL = `CREATE INDEX IF NOT EXISTS idx_weather_records_ts
        ON weather_records (ts);`
)

// EnsureSchema creates the observation table and timestamp index when absent.
// Safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, execErr := pool.Exec(ctx, createTableSQL); execErr != nil {
		return fmt.Errorf("create weather_records table: %w", execErr)
	}
	if _, execErr := pool.Exec(ctx, createIndexSQL); execErr != nil {
		return fmt.Errorf("create timestamp index: %w", execErr)
	}
	return nil
}
