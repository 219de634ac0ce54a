package coordinates

import (
	"math"
	"testing"
)

// TestNormalizeTrack tests track normalization
func TestNormalizeTrack(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{0.0, 0.0},
		{359.0, 359.0},
		{360.0, 0.0},
		{361.0, 1.0},
		{-1.0, 359.0},
		{-90.0, 270.0},
		{720.0, 0.0},
	}

	for _, tt := range tests {
		got := NormalizeTrack(tt.input)
		if math.Abs(got-tt.want) > 0.0001 {
			t.Errorf("NormalizeTrack(%.1f) = %.1f, want %.1f", tt.input, got, tt.want)
		}
	}
}

// TestNormalizeAngle tests angle difference normalization.
func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0.0, 0.0},
		{90.0, 90.0},
		{180.0, 180.0},
		{-180.0, -180.0},
		{270.0, -90.0},
		{-270.0, 90.0},
		{360.0, 0.0},
		{450.0, 90.0},
	}

	for _, tt := range tests {
		result := NormalizeAngle(tt.input)
		if math.Abs(result-tt.expected) > 0.01 {
			t.Errorf("NormalizeAngle(%f) = %f, expected %f", tt.input, result, tt.expected)
		}
	}
}

// TestBearing tests initial bearing calculation.
func TestBearing(t *testing.T) {
	origin := Point{Lat: 52.0, Lon: 13.0}

	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"North", Point{Lat: 53.0, Lon: 13.0}, 0.0},
		{"South", Point{Lat: 51.0, Lon: 13.0}, 180.0},
		{"East (small offset)", Point{Lat: 52.0, Lon: 13.01}, 90.0},
		{"West (small offset)", Point{Lat: 52.0, Lon: 12.99}, 270.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 0.1 {
				t.Errorf("Expected bearing %.1f, got %.4f", tt.want, got)
			}
		})
	}
}

// TestDistanceKm tests haversine distance.
func TestDistanceKm(t *testing.T) {
	t.Run("Same point is zero", func(t *testing.T) {
		p := Point{Lat: 35.0, Lon: -80.0}
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("Expected 0 km, got %f", d)
		}
	})

	t.Run("One degree of latitude", func(t *testing.T) {
		d := DistanceKm(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
		expected := EarthRadiusKm * DegreesToRadians
		if math.Abs(d-expected) > 0.001 {
			t.Errorf("Expected %f km, got %f", expected, d)
		}
	})
}

// TestDestination tests great circle destination stepping.
func TestDestination(t *testing.T) {
	t.Run("Eastward movement", func(t *testing.T) {
		start := Point{Lat: 52.0, Lon: 13.0}
		p := Destination(start, 90.0, 6.0)

		if p.Lon <= start.Lon {
			t.Errorf("Expected longitude to increase, got %f", p.Lon)
		}
		if math.Abs(p.Lat-start.Lat) > 0.01 {
			t.Errorf("Expected latitude ~52.0, got %f", p.Lat)
		}
		if d := DistanceKm(start, p); math.Abs(d-6.0) > 0.001 {
			t.Errorf("Expected 6 km travelled, got %f", d)
		}
	})

	t.Run("Northward movement", func(t *testing.T) {
		start := Point{Lat: 35.0, Lon: -80.0}
		p := Destination(start, 0.0, 111.0)

		if p.Lat <= 35.0 {
			t.Errorf("Expected latitude to increase, got %f", p.Lat)
		}
		if math.Abs(p.Lon-(-80.0)) > 1e-9 {
			t.Errorf("Expected longitude -80.0, got %f", p.Lon)
		}
	})

	t.Run("Zero distance returns start", func(t *testing.T) {
		start := Point{Lat: 10.0, Lon: 20.0}
		p := Destination(start, 123.0, 0)
		if math.Abs(p.Lat-start.Lat) > 1e-12 || math.Abs(p.Lon-start.Lon) > 1e-12 {
			t.Errorf("Expected start point, got %+v", p)
		}
	})

	t.Run("Longitude normalization", func(t *testing.T) {
		p := Destination(Point{Lat: 0.0, Lon: 179.9}, 90.0, 50.0)
		if p.Lon > 180.0 || p.Lon < -180.0 {
			t.Errorf("Longitude not normalized, got %f", p.Lon)
		}
		if p.Lon > 0 {
			t.Errorf("Expected wrap to negative longitude, got %f", p.Lon)
		}
	})
}

// TestPointKey tests exact coordinate keys.
func TestPointKey(t *testing.T) {
	a := Point{Lat: 52.1, Lon: 13.2}
	b := Point{Lat: 52.1, Lon: 13.2}
	c := Point{Lat: 52.1, Lon: 13.2000000001}

	if a.Key() != b.Key() {
		t.Errorf("Expected equal keys, got %s and %s", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Error("Expected distinct keys for distinct coordinates")
	}
}

// TestBoundingBox tests search box derivation.
func TestBoundingBox(t *testing.T) {
	center := Point{Lat: 52.0, Lon: 13.0}
	minLat, minLon, maxLat, maxLon := BoundingBox(center, 100)

	if !(minLat < 52.0 && maxLat > 52.0 && minLon < 13.0 && maxLon > 13.0) {
		t.Fatalf("Box does not contain center: %f %f %f %f", minLat, minLon, maxLat, maxLon)
	}

	// North edge should be ~100 km from center
	if d := DistanceKm(center, Point{Lat: maxLat, Lon: 13.0}); math.Abs(d-100) > 0.01 {
		t.Errorf("Expected north edge at 100 km, got %f", d)
	}

	// Longitude span is wider than latitude span away from the equator
	if (maxLon - minLon) <= (maxLat - minLat) {
		t.Error("Expected longitude span to exceed latitude span at 52°N")
	}
}
