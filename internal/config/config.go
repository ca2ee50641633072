package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the full application configuration
type Config struct {
	Env         string `yaml:"env" env:"CORRICION_ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"CORRICION_STORAGE_PATH" env-default:"corricion.db"`

	Log struct {
		Level  string `yaml:"level" env:"CORRICION_LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"CORRICION_LOG_FORMAT" env-default:"console"`
	} `yaml:"log"`

	Tracking TrackingConfig `yaml:"tracking"`
	Location LocationConfig `yaml:"location"`
	Insight  InsightConfig  `yaml:"insight"`
}

// TrackingConfig holds the engine thresholds
type TrackingConfig struct {
	// Fixes with accuracy above this ceiling are always rejected
	MaxAccuracyMeters float64 `yaml:"max_accuracy_meters" env-default:"50"`
	// After a sampling gap longer than this, re-admission requires the tighter ceiling
	StaleGapSeconds     int     `yaml:"stale_gap_seconds" env-default:"10"`
	StaleAccuracyMeters float64 `yaml:"stale_accuracy_meters" env-default:"30"`
	// Increments at or below this are treated as stationary GPS jitter
	JitterMeters float64 `yaml:"jitter_meters" env-default:"3"`
	// Display snapshot cadence
	TickIntervalSeconds int `yaml:"tick_interval_seconds" env-default:"1"`
	// Most-recent finalized sessions retained in history
	HistoryLimit int `yaml:"history_limit" env-default:"10"`
}

// LocationConfig holds fix-source options
type LocationConfig struct {
	HighAccuracy bool `yaml:"high_accuracy" env-default:"true"`
	// 0 means a cached fix is never acceptable
	MaximumAgeMs int `yaml:"maximum_age_ms" env-default:"0"`
	TimeoutMs    int `yaml:"timeout_ms" env-default:"5000"`
	// Replay source settings
	RouteFile        string `yaml:"route_file" env:"CORRICION_ROUTE_FILE"`
	ReplayIntervalMs int    `yaml:"replay_interval_ms" env-default:"1000"`
	WatchRouteFile   bool   `yaml:"watch_route_file" env-default:"true"`
}

// InsightConfig holds the AI commentary backend settings
type InsightConfig struct {
	Enabled        bool   `yaml:"enabled" env-default:"false"`
	BaseURL        string `yaml:"base_url" env:"CORRICION_INSIGHT_URL"`
	APIKey         string `yaml:"api_key" env:"CORRICION_INSIGHT_API_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env-default:"10"`
}

// LoadConfig reads the YAML configuration file with environment overrides
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Tracking.MaxAccuracyMeters <= 0 {
		return fmt.Errorf("tracking.max_accuracy_meters must be positive")
	}
	if c.Tracking.StaleAccuracyMeters <= 0 || c.Tracking.StaleAccuracyMeters > c.Tracking.MaxAccuracyMeters {
		return fmt.Errorf("tracking.stale_accuracy_meters must be in (0, max_accuracy_meters]")
	}
	if c.Tracking.StaleGapSeconds <= 0 {
		return fmt.Errorf("tracking.stale_gap_seconds must be positive")
	}
	if c.Tracking.JitterMeters < 0 {
		return fmt.Errorf("tracking.jitter_meters must not be negative")
	}
	if c.Tracking.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tracking.tick_interval_seconds must be positive")
	}
	if c.Tracking.HistoryLimit <= 0 {
		return fmt.Errorf("tracking.history_limit must be positive")
	}
	return nil
}
