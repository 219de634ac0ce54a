package tracking

import "github.com/unklstewy/planefinder/pkg/config"

// Config holds the tunables of prediction and trail building.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// LookAheadMinutes is the projection window
	LookAheadMinutes float64

	// Steps is the number of sub-intervals the window is split into
	Steps int

	// MaxClipDistanceKm is the great-circle limit for predicted points
	MaxClipDistanceKm float64

	// HistoryCap is the per-entity position history size
	HistoryCap int

	// SmoothingSamples is the spline resample count for predicted paths
	SmoothingSamples int

	// TrailSubdivisions is the number of sub-steps per trail segment
	TrailSubdivisions int

	// MinOpacity is the opacity of the oldest trail segment
	MinOpacity float64

	// MaxOpacity is the opacity of the newest trail segment
	MaxOpacity float64

	// SplineTension scales tangents; 0.5 yields Catmull-Rom
	SplineTension float64
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return ConfigFromSettings(config.DefaultPrediction())
}

// ConfigFromSettings converts the file-level prediction section.
func ConfigFromSettings(p config.PredictionConfig) Config {
	return Config{
		LookAheadMinutes:  p.LookAheadMinutes,
		Steps:             p.Steps,
		MaxClipDistanceKm: p.MaxClipDistanceKm,
		HistoryCap:        p.HistoryCap,
		SmoothingSamples:  p.SmoothingSamples,
		TrailSubdivisions: p.TrailSubdivisions,
		MinOpacity:        p.MinOpacity,
		MaxOpacity:        p.MaxOpacity,
		SplineTension:     p.SplineTension,
	}
}
