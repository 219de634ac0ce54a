package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/unklstewy/planefinder/internal/maplayer"
	"github.com/unklstewy/planefinder/internal/scan"
	"github.com/unklstewy/planefinder/pkg/adsb"
	"github.com/unklstewy/planefinder/pkg/config"
	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

type fakeScanner struct {
	forced int
	stats  scan.Stats
}

func (f *fakeScanner) ForceScan() bool {
	f.forced++
	return f.forced == 1
}

func (f *fakeScanner) Stats() scan.Stats { return f.stats }

type fixture struct {
	server  *Server
	tracker *tracking.Tracker
	layer   *maplayer.Layer
	scanner *fakeScanner
	hub     *Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	center := coordinates.Point{Lat: cfg.ADSB.Area.Latitude, Lon: cfg.ADSB.Area.Longitude}
	tr := tracking.NewTracker(tracking.DefaultConfig(), center, cfg.ADSB.Area.RadiusKm)
	layer := maplayer.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var res tracking.TickResult
	for i := 0; i < 3; i++ {
		pos := coordinates.Destination(center, 90, float64(i)*2)
		res = tr.Apply([]adsb.Aircraft{{
			ICAO:        "3c6444",
			Callsign:    "DLH4AB",
			Latitude:    pos.Lat,
			Longitude:   pos.Lon,
			Track:       adsb.Float(90),
			GroundSpeed: adsb.Float(200),
		}}, time.Unix(1700000000+int64(i)*10, 0))
		layer.Apply(res)
	}

	sc := &fakeScanner{stats: scan.Stats{Ticks: 3}}
	hub := NewHub(layer, logger, nil)
	return &fixture{
		server:  NewServer(cfg, tr, layer, sc, hub, "opensky", logger),
		tracker: tr,
		layer:   layer,
		scanner: sc,
		hub:     hub,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

// TestHealth tests the health endpoint.
func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/healthz")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body struct {
		Status string     `json:"status"`
		Source string     `json:"source"`
		Scan   scan.Stats `json:"scan"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Status != "ok" || body.Source != "opensky" || body.Scan.Ticks != 3 {
		t.Errorf("Unexpected body %+v", body)
	}
}

// TestGetAircraft tests the aircraft list.
func TestGetAircraft(t *testing.T) {
	f := newFixture(t)

	t.Run("Without history", func(t *testing.T) {
		w := f.get(t, "/api/v1/aircraft")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var body struct {
			Count    int               `json:"count"`
			Aircraft []tracking.Entity `json:"aircraft"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if body.Count != 1 || body.Aircraft[0].ID != "3c6444" {
			t.Fatalf("Unexpected aircraft %+v", body)
		}
		if len(body.Aircraft[0].History) != 0 {
			t.Error("Expected history to be omitted")
		}
		if len(body.Aircraft[0].Frame.Predicted) == 0 {
			t.Error("Expected the predicted path in the frame")
		}
	})

	t.Run("With history", func(t *testing.T) {
		w := f.get(t, "/api/v1/aircraft?history=true")
		var body struct {
			Aircraft []tracking.Entity `json:"aircraft"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if len(body.Aircraft[0].History) != 3 {
			t.Errorf("Expected 3 samples, got %d", len(body.Aircraft[0].History))
		}
	})
}

// TestGetAircraftByICAO tests single aircraft lookup.
func TestGetAircraftByICAO(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"Known aircraft", "/api/v1/aircraft/3c6444", http.StatusOK},
		{"Upper case address", "/api/v1/aircraft/3C6444", http.StatusOK},
		{"Unknown aircraft", "/api/v1/aircraft/ffffff", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.get(t, tt.path)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// TestGetGeoJSON tests the map export.
func TestGetGeoJSON(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/api/v1/map.geojson")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Expected geo+json content type, got %s", ct)
	}
	var body struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Type != "FeatureCollection" || len(body.Features) != f.layer.Len() {
		t.Errorf("Expected %d features, got %d (%s)", f.layer.Len(), len(body.Features), body.Type)
	}
}

// TestForceScan tests the scan trigger.
func TestForceScan(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil)
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"queued":true`) {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if f.scanner.forced != 1 {
		t.Errorf("Expected 1 forced scan, got %d", f.scanner.forced)
	}
}

// TestGetPredictionConfig tests the prediction settings endpoint.
func TestGetPredictionConfig(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/api/v1/config/prediction")

	var got config.PredictionConfig
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if got != config.DefaultPrediction() {
		t.Errorf("Expected default prediction settings, got %+v", got)
	}
}

// TestCORS tests that preflight requests are answered.
func TestCORS(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/aircraft", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers on preflight")
	}
}

// TestWebSocketStream tests the snapshot and tick stream.
func TestWebSocketStream(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.hub.Run(ctx)

	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snapshot Message
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if snapshot.Type != "snapshot" || len(snapshot.Ops) != f.layer.Len() {
		t.Fatalf("Expected snapshot of %d ops, got %s with %d", f.layer.Len(), snapshot.Type, len(snapshot.Ops))
	}
	for _, op := range snapshot.Ops {
		if !op.Kind.IsDraw() {
			t.Errorf("Snapshot contains %s", op.Kind)
		}
	}

	res := f.tracker.Apply(nil, time.Now())
	f.hub.Publish(scan.Batch{Result: res, Ops: f.layer.Apply(res)})

	var tick Message
	if err := conn.ReadJSON(&tick); err != nil {
		t.Fatalf("Failed to read ops: %v", err)
	}
	if tick.Type != "ops" {
		t.Fatalf("Expected ops message, got %s", tick.Type)
	}
	if len(tick.Ops) != len(snapshot.Ops) {
		t.Errorf("Expected %d removals, got %d", len(snapshot.Ops), len(tick.Ops))
	}
	for _, op := range tick.Ops {
		if op.Kind.IsDraw() {
			t.Errorf("Expected only removals, got %s", op.Kind)
		}
	}
}
