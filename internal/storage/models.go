package storage

import (
	"time"
)

// WeatherRecord represents one normalized observation for one city at one instant.
type WeatherRecord struct {
	ID                 int64
	CityName           string
	Country            string
	Temperature        float64
	FeelsLike          float64
	Humidity           int
	Pressure           int
	WindSpeed          float64
	WindDirection      int
	WeatherCondition   string
	WeatherDescription string
	Clouds             int
	Rain1h             *float64
	Snow1h             *float64
	Timestamp          time.Time
}

// NewWeatherRecord fills defaults before the record enters the pipeline.
// A zero timestamp is replaced with the current time so a record is never
// persisted without one.
func NewWeatherRecord(rec WeatherRecord) WeatherRecord {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return rec
}

// DailyAverage is one calendar day's mean temperature for a city.
type DailyAverage struct {
	Date           time.Time
	AvgTemperature float64
}
