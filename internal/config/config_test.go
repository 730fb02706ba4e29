package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{IntervalSeconds: 3600},
		Weather: WeatherConfig{
			BaseURL:  "https://example.com/",
			Provider: ProviderVisualCrossing,
		},
		Export: ExportConfig{WindowDays: 30},
		Cities: DefaultCities(),
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults should not fail: %v", err)
	}

	if len(cfg.Cities) != 5 {
		t.Fatalf("expected 5 default cities, got %d", len(cfg.Cities))
	}
	if cfg.Scheduler.Interval() != time.Hour {
		t.Fatalf("expected default interval 1h, got %v", cfg.Scheduler.Interval())
	}
	if cfg.Weather.Provider != ProviderVisualCrossing {
		t.Fatalf("unexpected default provider %q", cfg.Weather.Provider)
	}
	if cfg.Database.DSN == "" {
		t.Fatal("expected a default database dsn")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := validConfig()
	cfg.Scheduler.IntervalSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero interval must be rejected")
	}

	cfg = validConfig()
	cfg.Weather.Provider = "noaa"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider must be rejected")
	}

	cfg = validConfig()
	cfg.Cities = append(cfg.Cities, City{Name: "Nowhere", Country: "XYZ"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("3-letter country code must be rejected")
	}
}
