package adsb

import (
	"context"
	"errors"
	"time"
)

// ErrUnauthorized is returned when a data source rejects the configured credentials.
var ErrUnauthorized = errors.New("adsb: unauthorized")

// Aircraft represents one observed aircraft state from an upstream feed.
// All position data is in WGS84 coordinate system.
//
// Fields a feed may omit are pointers; nil means "unknown" and the
// tracking core degrades gracefully (no prediction is drawn).
type Aircraft struct {
	// ICAO is the unique 24-bit ICAO aircraft address as lowercase hex (e.g., "3c6444")
	ICAO string `json:"icao"`

	// Callsign is the flight number or aircraft registration, trimmed
	Callsign string `json:"callsign,omitempty"`

	// OriginCountry is the country inferred from the ICAO address block
	OriginCountry string `json:"origin_country,omitempty"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"lat"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"lon"`

	// Track is the ground track in degrees [0, 360)
	// 0 = North, 90 = East, 180 = South, 270 = West
	Track *float64 `json:"track,omitempty"`

	// GroundSpeed in meters per second
	GroundSpeed *float64 `json:"ground_speed,omitempty"`

	// Altitude in meters (geometric preferred, barometric otherwise)
	Altitude *float64 `json:"altitude,omitempty"`

	// VerticalRate in meters per second (positive = climbing)
	VerticalRate *float64 `json:"vertical_rate,omitempty"`

	// OnGround is true when the transponder reports a surface position
	OnGround bool `json:"on_ground"`

	// LastSeen is the timestamp of the last position update
	LastSeen time.Time `json:"last_seen"`
}

// HasPosition reports whether the aircraft carries a usable position.
// Decoders drop rows without coordinates; (0,0) is treated as a null report.
func (a Aircraft) HasPosition() bool {
	if a.Latitude == 0 && a.Longitude == 0 {
		return false
	}
	return a.Latitude >= -90 && a.Latitude <= 90 &&
		a.Longitude >= -180 && a.Longitude <= 180
}

// DataSource is the interface that all aircraft-state providers must implement.
// This abstraction allows switching between OpenSky, airplanes.live and
// local receivers without touching the scan loop.
type DataSource interface {
	// GetAircraft returns all currently observed aircraft within a given radius.
	// centerLat/centerLon define the search center in decimal degrees.
	// radiusKm is the search radius in kilometers.
	GetAircraft(ctx context.Context, centerLat, centerLon, radiusKm float64) ([]Aircraft, error)

	// Name identifies the source in logs.
	Name() string

	// Close cleanly shuts down the data source connection.
	Close() error
}

// Float returns a pointer to v. Handy for building Aircraft literals.
func Float(v float64) *float64 {
	return &v
}
