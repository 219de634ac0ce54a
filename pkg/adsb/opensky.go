package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// OpenSkyClient implements the DataSource interface for the OpenSky Network REST API.
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
// Anonymous users get 10 second resolution and a daily credit quota.
type OpenSkyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	// username/password enable basic auth; both empty means anonymous
	username string
	password string
}

// NewOpenSkyClient creates a new OpenSky client.
// baseURL should be "https://opensky-network.org/api" (or custom for testing).
// minInterval is the minimum spacing between requests; 0 disables limiting.
func NewOpenSkyClient(baseURL, username, password string, minInterval time.Duration) *OpenSkyClient {
	return &OpenSkyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter:  newLimiter(minInterval),
		username: username,
		password: password,
	}
}

// Name identifies the source in logs.
func (c *OpenSkyClient) Name() string {
	return "opensky"
}

// GetAircraft returns all state vectors inside the bounding box of the
// search circle. Rows outside the circle itself are kept; the tracker
// applies the exact radius.
func (c *OpenSkyClient) GetAircraft(ctx context.Context, centerLat, centerLon, radiusKm float64) ([]Aircraft, error) {
	minLat, minLon, maxLat, maxLon := coordinates.BoundingBox(
		coordinates.Point{Lat: centerLat, Lon: centerLon}, radiusKm)

	q := url.Values{}
	q.Set("lamin", strconv.FormatFloat(minLat, 'f', 4, 64))
	q.Set("lomin", strconv.FormatFloat(minLon, 'f', 4, 64))
	q.Set("lamax", strconv.FormatFloat(maxLat, 'f', 4, 64))
	q.Set("lomax", strconv.FormatFloat(maxLon, 'f', 4, 64))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/states/all?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state vectors: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var apiResp openSkyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	aircraft := make([]Aircraft, 0, len(apiResp.States))
	for _, row := range apiResp.States {
		ac, ok := decodeStateVector(row)
		if !ok {
			continue
		}
		aircraft = append(aircraft, ac)
	}
	return aircraft, nil
}

// Close cleanly shuts down the client.
func (c *OpenSkyClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// openSkyResponse is the /states/all payload. Each state is a positional
// array, so rows are decoded as raw messages.
type openSkyResponse struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

// State vector indices.
const (
	svICAO24        = 0
	svCallsign      = 1
	svOriginCountry = 2
	svTimePosition  = 3
	svLastContact   = 4
	svLongitude     = 5
	svLatitude      = 6
	svBaroAltitude  = 7
	svOnGround      = 8
	svVelocity      = 9
	svTrueTrack     = 10
	svVerticalRate  = 11
	svGeoAltitude   = 13
)

// decodeStateVector converts one positional row. Rows without an
// identifier or a position are rejected.
func decodeStateVector(row []json.RawMessage) (Aircraft, bool) {
	if len(row) <= svTrueTrack {
		return Aircraft{}, false
	}

	var ac Aircraft
	ac.ICAO = strings.ToLower(strings.TrimSpace(rawString(row, svICAO24)))
	if ac.ICAO == "" {
		return Aircraft{}, false
	}

	lat := rawFloat(row, svLatitude)
	lon := rawFloat(row, svLongitude)
	if lat == nil || lon == nil {
		return Aircraft{}, false
	}
	ac.Latitude = *lat
	ac.Longitude = *lon

	ac.Callsign = strings.TrimSpace(rawString(row, svCallsign))
	ac.OriginCountry = rawString(row, svOriginCountry)
	ac.OnGround = rawBool(row, svOnGround)
	ac.GroundSpeed = rawFloat(row, svVelocity)
	ac.VerticalRate = rawFloat(row, svVerticalRate)
	if track := rawFloat(row, svTrueTrack); track != nil {
		ac.Track = Float(coordinates.NormalizeTrack(*track))
	}

	// Prefer geometric altitude over barometric
	ac.Altitude = rawFloat(row, svGeoAltitude)
	if ac.Altitude == nil {
		ac.Altitude = rawFloat(row, svBaroAltitude)
	}

	if ts := rawFloat(row, svTimePosition); ts != nil {
		ac.LastSeen = time.Unix(int64(*ts), 0).UTC()
	} else if ts := rawFloat(row, svLastContact); ts != nil {
		ac.LastSeen = time.Unix(int64(*ts), 0).UTC()
	}

	return ac, true
}

func rawFloat(row []json.RawMessage, i int) *float64 {
	if i >= len(row) {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(row[i], &v); err != nil {
		return nil
	}
	return v
}

func rawString(row []json.RawMessage, i int) string {
	if i >= len(row) {
		return ""
	}
	var s string
	if err := json.Unmarshal(row[i], &s); err != nil {
		return ""
	}
	return s
}

func rawBool(row []json.RawMessage, i int) bool {
	if i >= len(row) {
		return false
	}
	var b bool
	if err := json.Unmarshal(row[i], &b); err != nil {
		return false
	}
	return b
}
