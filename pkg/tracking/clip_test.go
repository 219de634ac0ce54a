package tracking

import (
	"math"
	"testing"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

func eastward(anchor coordinates.Point, stepKm float64, n int) []coordinates.Point {
	out := make([]coordinates.Point, n)
	for i := range out {
		out[i] = coordinates.Destination(anchor, 90, stepKm*float64(i))
	}
	return out
}

// TestClipDistanceLimit tests that no clipped point exceeds the limit.
func TestClipDistanceLimit(t *testing.T) {
	anchor := coordinates.Point{Lat: 52.0, Lon: 13.0}
	path := eastward(anchor, 0.7, 15) // 0 .. 9.8 km

	res := Clip(path, anchor, 5)
	if res.Degenerate {
		t.Fatal("Expected a drawable path")
	}
	if len(res.Path) != 8 {
		t.Errorf("Expected 8 points within 5 km, got %d", len(res.Path))
	}
	for i, p := range res.Path {
		if d := coordinates.DistanceKm(anchor, p); d > 5 {
			t.Errorf("Point %d is %.4f km from anchor", i, d)
		}
	}
	if res.Path[0] != anchor {
		t.Errorf("Expected first point to stay the anchor, got %+v", res.Path[0])
	}
}

// TestClipArrowhead tests arrowhead placement and rotation.
func TestClipArrowhead(t *testing.T) {
	anchor := coordinates.Point{Lat: 52.0, Lon: 13.0}
	path := eastward(anchor, 0.7, 15)

	res := Clip(path, anchor, 5)
	if res.Arrow == nil {
		t.Fatal("Expected an arrowhead")
	}
	if res.Arrow.Position != res.Path[len(res.Path)-1] {
		t.Errorf("Expected arrowhead at path terminus, got %+v", res.Arrow.Position)
	}

	// Rotation follows the last two points of the unclipped path
	want := coordinates.Bearing(path[len(path)-2], path[len(path)-1])
	if math.Abs(res.Arrow.Rotation-want) > 1e-9 {
		t.Errorf("Expected rotation %f, got %f", want, res.Arrow.Rotation)
	}
	if math.Abs(res.Arrow.Rotation-90) > 0.2 {
		t.Errorf("Expected eastward rotation, got %f", res.Arrow.Rotation)
	}
}

// TestClipDegenerate tests suppression of paths with fewer than two distinct points.
func TestClipDegenerate(t *testing.T) {
	anchor := coordinates.Point{Lat: 52.0, Lon: 13.0}

	tests := []struct {
		name string
		path []coordinates.Point
	}{
		{"Empty path", nil},
		{"Single point", []coordinates.Point{anchor}},
		{"All points identical", []coordinates.Point{anchor, anchor, anchor, anchor}},
		{"Everything but the anchor is too far", []coordinates.Point{
			anchor,
			coordinates.Destination(anchor, 90, 6),
			coordinates.Destination(anchor, 90, 7),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Clip(tt.path, anchor, 5)
			if !res.Degenerate {
				t.Error("Expected degenerate result")
			}
			if len(res.Path) != 0 || res.Arrow != nil {
				t.Errorf("Expected nothing to draw, got %+v", res)
			}
		})
	}
}

// TestClipDuplicatesCountOnce tests that repeated points are not distinct.
func TestClipDuplicatesCountOnce(t *testing.T) {
	anchor := coordinates.Point{Lat: 52.0, Lon: 13.0}
	next := coordinates.Destination(anchor, 0, 1)

	res := Clip([]coordinates.Point{anchor, anchor, next}, anchor, 5)
	if res.Degenerate {
		t.Fatal("Expected two distinct points to be drawable")
	}
	if len(res.Path) != 3 {
		t.Errorf("Expected duplicates to be kept in the path, got %d points", len(res.Path))
	}
}
