package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// AirplanesLiveClient implements the DataSource interface for airplanes.live API.
// API Documentation: https://airplanes.live/api-guide/
// Rate Limit: 1 request per second
type AirplanesLiveClient struct {
	// baseURL is the API base URL (default: https://api.airplanes.live/v2)
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	// limiter spaces requests to respect the published rate limit
	limiter *rate.Limiter

	// now is the clock used to derive LastSeen from "seen" offsets
	now func() time.Time
}

// NewAirplanesLiveClient creates a new airplanes.live API client.
// baseURL should be "https://api.airplanes.live/v2" (or custom for testing).
// minInterval is the minimum spacing between requests; 0 disables limiting.
func NewAirplanesLiveClient(baseURL string, minInterval time.Duration) *AirplanesLiveClient {
	return &AirplanesLiveClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: newLimiter(minInterval),
		now:     time.Now,
	}
}

// Name identifies the source in logs.
func (c *AirplanesLiveClient) Name() string {
	return "airplanes.live"
}

// GetAircraft returns all aircraft within a radius of a given point.
// Uses the /point/[lat]/[lon]/[radius] endpoint.
// Maximum radius is 250 nautical miles.
//
// centerLat/centerLon: Center point in decimal degrees
// radiusKm: Search radius in kilometers (capped at 250 NM)
func (c *AirplanesLiveClient) GetAircraft(ctx context.Context, centerLat, centerLon, radiusKm float64) ([]Aircraft, error) {
	radiusNM := radiusKm / coordinates.KmPerNauticalMile
	if radiusNM > 250.0 {
		radiusNM = 250.0
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, centerLat, centerLon, radiusNM)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aircraft data: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var apiResp airplanesLiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	now := c.now().UTC()
	aircraft := make([]Aircraft, 0, len(apiResp.Aircraft))
	for _, ac := range apiResp.Aircraft {
		// Skip aircraft without a position
		if ac.Lat == nil || ac.Lon == nil {
			continue
		}
		aircraft = append(aircraft, convertAirplanesLiveAircraft(ac, now))
	}

	return aircraft, nil
}

// Close cleanly shuts down the client.
// For airplanes.live, this is a no-op as there are no persistent connections.
func (c *AirplanesLiveClient) Close() error {
	return nil
}

// airplanesLiveResponse represents the JSON response from airplanes.live API.
type airplanesLiveResponse struct {
	Aircraft []airplanesLiveAircraft `json:"ac"`
	Total    int                     `json:"total"`
	Now      float64                 `json:"now"`
}

// airplanesLiveAircraft represents a single aircraft in the airplanes.live API response.
// Field documentation: https://airplanes.live/adsb-field-explanations/
type airplanesLiveAircraft struct {
	// Hex is the ICAO Mode S hex code (e.g., "a12345")
	Hex string `json:"hex"`

	// Flight is the callsign/flight number
	Flight *string `json:"flight"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	// AltBaro is barometric altitude in feet, or the string "ground"
	AltBaro interface{} `json:"alt_baro"`

	// AltGeom is geometric (GPS) altitude in feet
	AltGeom interface{} `json:"alt_geom"`

	// Gs is ground speed in knots
	Gs *float64 `json:"gs"`

	// Track is ground track in degrees (0-360)
	Track *float64 `json:"track"`

	// BaroRate is barometric vertical rate in feet/minute
	BaroRate *float64 `json:"baro_rate"`

	// Seen is seconds since last position update
	Seen *float64 `json:"seen"`
}

// convertAirplanesLiveAircraft converts an airplanes.live aircraft to our
// Aircraft type, converting knots and feet to SI units.
func convertAirplanesLiveAircraft(ac airplanesLiveAircraft, now time.Time) Aircraft {
	aircraft := Aircraft{
		ICAO: strings.ToLower(strings.TrimPrefix(ac.Hex, "~")),
	}

	if ac.Flight != nil {
		aircraft.Callsign = strings.TrimSpace(*ac.Flight)
	}
	if ac.Lat != nil {
		aircraft.Latitude = *ac.Lat
	}
	if ac.Lon != nil {
		aircraft.Longitude = *ac.Lon
	}

	// "ground" in alt_baro is the surface indicator
	if s, ok := ac.AltBaro.(string); ok && s == "ground" {
		aircraft.OnGround = true
	}

	// Altitude - prefer geometric (GPS) over barometric
	if alt := parseAltitude(ac.AltGeom); alt != nil {
		aircraft.Altitude = Float(*alt * coordinates.FeetToMeters)
	} else if alt := parseAltitude(ac.AltBaro); alt != nil {
		aircraft.Altitude = Float(*alt * coordinates.FeetToMeters)
	}

	if ac.Gs != nil {
		aircraft.GroundSpeed = Float(*ac.Gs * coordinates.KnotsToMetersPerSecond)
	}
	if ac.Track != nil {
		aircraft.Track = Float(coordinates.NormalizeTrack(*ac.Track))
	}
	if ac.BaroRate != nil {
		// feet per minute to meters per second
		aircraft.VerticalRate = Float(*ac.BaroRate * coordinates.FeetToMeters / 60.0)
	}

	// Timestamp - calculate from "seen" seconds ago
	if ac.Seen != nil {
		aircraft.LastSeen = now.Add(-time.Duration(*ac.Seen * float64(time.Second)))
	} else {
		aircraft.LastSeen = now
	}

	return aircraft
}

// parseAltitude safely extracts altitude from interface{} which can be float64 or string.
// Returns nil if the value is invalid; "ground" maps to zero.
func parseAltitude(val interface{}) *float64 {
	switch v := val.(type) {
	case float64:
		return &v
	case string:
		if v == "ground" {
			zero := 0.0
			return &zero
		}
		return nil
	default:
		return nil
	}
}

// newLimiter builds a limiter allowing one request per interval.
// A zero interval yields an unlimited limiter.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
