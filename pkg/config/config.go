package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
// Configuration can be loaded from a JSON or YAML file.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	ADSB       ADSBConfig       `json:"adsb" yaml:"adsb"`
	Prediction PredictionConfig `json:"prediction" yaml:"prediction"`
	Metadata   MetadataConfig   `json:"metadata" yaml:"metadata"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port" yaml:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host" yaml:"host"`

	// AllowedOrigins lists the browser origins permitted by CORS
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// SearchArea is the circle aircraft are tracked within.
type SearchArea struct {
	// Name is a friendly identifier for this area
	Name string `json:"name" yaml:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude" yaml:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude" yaml:"longitude"`

	// RadiusKm is the search radius in kilometers. Aircraft leaving it
	// are dropped from tracking.
	RadiusKm float64 `json:"radius_km" yaml:"radius_km"`
}

// ADSBConfig contains ADS-B data source configuration.
type ADSBConfig struct {
	// Sources is a list of configured ADS-B data sources.
	// The first enabled source is polled.
	Sources []ADSBSource `json:"sources" yaml:"sources"`

	// Area is the tracked search circle
	Area SearchArea `json:"area" yaml:"area"`

	// UpdateIntervalSeconds is how often to refresh aircraft data
	UpdateIntervalSeconds int `json:"update_interval_seconds" yaml:"update_interval_seconds"`

	// Retry controls backoff for failed fetches within one tick
	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// ADSBSource represents a single ADS-B data source configuration.
type ADSBSource struct {
	// Name is a friendly name for this source
	Name string `json:"name" yaml:"name"`

	// Type is the source type: "opensky" or "airplanes.live"
	Type string `json:"type" yaml:"type"`

	// Enabled determines if this source should be used
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BaseURL is the API base URL
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Username and Password enable authenticated OpenSky access
	// (higher quota). Prefer setting them through the environment.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// RateLimitSeconds is the minimum time between API calls in seconds
	// 0 = no rate limit, >0 = enforce minimum delay between calls
	RateLimitSeconds float64 `json:"rate_limit_seconds" yaml:"rate_limit_seconds"`
}

// RetryConfig mirrors adsb.RetryConfig in file-friendly units.
type RetryConfig struct {
	MaxRetries          int     `json:"max_retries" yaml:"max_retries"`
	InitialDelaySeconds float64 `json:"initial_delay_seconds" yaml:"initial_delay_seconds"`
	MaxDelaySeconds     float64 `json:"max_delay_seconds" yaml:"max_delay_seconds"`
}

// PredictionConfig holds the tunables of path prediction and trail rendering.
type PredictionConfig struct {
	// LookAheadMinutes is how far ahead the projected path reaches
	LookAheadMinutes float64 `json:"look_ahead_minutes" yaml:"look_ahead_minutes"`

	// Steps is the number of projection sub-intervals
	Steps int `json:"steps" yaml:"steps"`

	// MaxClipDistanceKm drops predicted points farther than this from the aircraft
	MaxClipDistanceKm float64 `json:"max_clip_distance_km" yaml:"max_clip_distance_km"`

	// HistoryCap is the number of position samples retained per aircraft
	HistoryCap int `json:"history_cap" yaml:"history_cap"`

	// SmoothingSamples is the resample count of the predicted spline
	SmoothingSamples int `json:"smoothing_samples" yaml:"smoothing_samples"`

	// TrailSubdivisions is the number of sub-steps per trail segment curve
	TrailSubdivisions int `json:"trail_subdivisions" yaml:"trail_subdivisions"`

	// MinOpacity and MaxOpacity bound the trail fade (oldest to newest)
	MinOpacity float64 `json:"min_opacity" yaml:"min_opacity"`
	MaxOpacity float64 `json:"max_opacity" yaml:"max_opacity"`

	// SplineTension is the cardinal spline tension (0.5 = Catmull-Rom)
	SplineTension float64 `json:"spline_tension" yaml:"spline_tension"`
}

// MetadataConfig configures the aircraft metadata lookup used for styling.
type MetadataConfig struct {
	// Enabled determines if metadata is fetched for new aircraft
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BaseURL is the adsbdb API base (default: https://api.adsbdb.com/v0)
	BaseURL string `json:"base_url" yaml:"base_url"`

	// CacheSize is the maximum number of cached lookups
	CacheSize int `json:"cache_size" yaml:"cache_size"`

	// CacheTTLMinutes is how long a lookup (including misses) is reused
	CacheTTLMinutes int `json:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`

	// RequestsPerSecond limits lookups against the public API
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// File is the rotating JSON log file; empty disables file output
	File string `json:"file" yaml:"file"`

	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the retention of rotated files
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// Load reads configuration from a JSON or YAML file, chosen by extension.
// If the file doesn't exist, returns a default configuration.
// Values missing from the file keep their defaults. A .env file next to
// the working directory is loaded before environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env is normal
	_ = godotenv.Load()

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Save writes the configuration to a JSON or YAML file, chosen by extension.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Credentials may be present
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		ADSB: ADSBConfig{
			Sources: []ADSBSource{
				{
					Name:             "opensky",
					Type:             SourceOpenSky,
					Enabled:          true,
					BaseURL:          "https://opensky-network.org/api",
					RateLimitSeconds: 10.0, // anonymous quota
				},
				{
					Name:             "airplanes.live",
					Type:             SourceAirplanesLive,
					Enabled:          false,
					BaseURL:          "https://api.airplanes.live/v2",
					RateLimitSeconds: 3.0,
				},
			},
			Area: SearchArea{
				Name:      "Default",
				Latitude:  52.0,
				Longitude: 13.0,
				RadiusKm:  100.0,
			},
			UpdateIntervalSeconds: 15,
			Retry: RetryConfig{
				MaxRetries:          2,
				InitialDelaySeconds: 1,
				MaxDelaySeconds:     10,
			},
		},
		Prediction: DefaultPrediction(),
		Metadata: MetadataConfig{
			Enabled:           true,
			BaseURL:           "https://api.adsbdb.com/v0",
			CacheSize:         1024,
			CacheTTLMinutes:   360,
			RequestsPerSecond: 2,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  32,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// DefaultPrediction returns the stock prediction and trail tunables.
func DefaultPrediction() PredictionConfig {
	return PredictionConfig{
		LookAheadMinutes:  0.5,
		Steps:             15,
		MaxClipDistanceKm: 5,
		HistoryCap:        15,
		SmoothingSamples:  30,
		TrailSubdivisions: 6,
		MinOpacity:        0.05,
		MaxOpacity:        0.7,
		SplineTension:     0.5,
	}
}

// Source types understood by the ADS-B client factory.
const (
	SourceOpenSky       = "opensky"
	SourceAirplanesLive = "airplanes.live"
)

// ActiveSource returns the first enabled ADS-B source.
func (cfg *ADSBConfig) ActiveSource() (ADSBSource, error) {
	for _, src := range cfg.Sources {
		if src.Enabled {
			return src, nil
		}
	}
	return ADSBSource{}, errors.New("no enabled ADS-B source configured")
}

// UpdateInterval returns the polling interval as a duration.
func (cfg *ADSBConfig) UpdateInterval() time.Duration {
	return time.Duration(cfg.UpdateIntervalSeconds) * time.Second
}

// RateLimit returns the minimum spacing between requests to this source.
func (src ADSBSource) RateLimit() time.Duration {
	return time.Duration(src.RateLimitSeconds * float64(time.Second))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	p := c.Prediction
	switch {
	case p.LookAheadMinutes <= 0:
		return fmt.Errorf("prediction.look_ahead_minutes must be positive, got %v", p.LookAheadMinutes)
	case p.Steps <= 0:
		return fmt.Errorf("prediction.steps must be positive, got %d", p.Steps)
	case p.MaxClipDistanceKm <= 0:
		return fmt.Errorf("prediction.max_clip_distance_km must be positive, got %v", p.MaxClipDistanceKm)
	case p.HistoryCap <= 0:
		return fmt.Errorf("prediction.history_cap must be positive, got %d", p.HistoryCap)
	case p.SmoothingSamples < 2:
		return fmt.Errorf("prediction.smoothing_samples must be at least 2, got %d", p.SmoothingSamples)
	case p.TrailSubdivisions <= 0:
		return fmt.Errorf("prediction.trail_subdivisions must be positive, got %d", p.TrailSubdivisions)
	case p.MinOpacity < 0 || p.MinOpacity > 1 || p.MaxOpacity < 0 || p.MaxOpacity > 1:
		return fmt.Errorf("prediction opacity must be within [0,1], got %v..%v", p.MinOpacity, p.MaxOpacity)
	case p.MinOpacity > p.MaxOpacity:
		return fmt.Errorf("prediction.min_opacity %v exceeds max_opacity %v", p.MinOpacity, p.MaxOpacity)
	}

	if c.ADSB.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("adsb.update_interval_seconds must be positive, got %d", c.ADSB.UpdateIntervalSeconds)
	}
	if c.ADSB.Area.RadiusKm <= 0 {
		return fmt.Errorf("adsb.area.radius_km must be positive, got %v", c.ADSB.Area.RadiusKm)
	}
	if _, err := c.ADSB.ActiveSource(); err != nil {
		return err
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level. An empty
// name means info; "warning" is accepted for warn.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("must be one of debug, info, warn, error, got %q", l.Level)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows credentials to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("PLANEFINDER_PORT"); port != "" {
		c.Server.Port = port
	}
	if level := os.Getenv("PLANEFINDER_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	user := os.Getenv("PLANEFINDER_OPENSKY_USER")
	password := os.Getenv("PLANEFINDER_OPENSKY_PASSWORD")
	for i := range c.ADSB.Sources {
		if c.ADSB.Sources[i].Type != SourceOpenSky {
			continue
		}
		if user != "" {
			c.ADSB.Sources[i].Username = user
		}
		if password != "" {
			c.ADSB.Sources[i].Password = password
		}
	}
}
