package tracking

import (
	"math"
	"testing"
	"time"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// flightHistory returns a history of n samples flying east, and the motion
// of the newest sample.
func flightHistory(n int, track, speed *float64) (*History, Motion) {
	h := NewHistory(15)
	var pos coordinates.Point
	for i := 0; i < n; i++ {
		pos = coordinates.Destination(coordinates.Point{Lat: 52.0, Lon: 13.0}, 90, float64(i)*2)
		h.Append(Sample{
			Lat:         pos.Lat,
			Lon:         pos.Lon,
			Timestamp:   epoch.Add(time.Duration(i) * 10 * time.Second),
			Track:       track,
			GroundSpeed: speed,
		})
	}
	return h, Motion{Position: pos, Track: track, GroundSpeed: speed}
}

// TestComputeFrameAnchoring tests that a predicted path starts at the aircraft.
func TestComputeFrameAnchoring(t *testing.T) {
	h, m := flightHistory(4, deg(90), deg(200))
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	if f.Skip != SkipNone {
		t.Fatalf("Expected a prediction, got skip %s", f.Skip)
	}
	if !f.HasPrediction() {
		t.Fatal("Expected HasPrediction")
	}
	if f.Predicted[0] != m.Position {
		t.Errorf("Expected first predicted point %+v, got %+v", m.Position, f.Predicted[0])
	}
	for i, p := range f.Predicted {
		if d := coordinates.DistanceKm(m.Position, p); d > 5 {
			t.Errorf("Predicted point %d is %.4f km away", i, d)
		}
	}
	if f.Arrow == nil {
		t.Fatal("Expected an arrowhead")
	}
	if math.Abs(f.Arrow.Rotation-90) > 1 {
		t.Errorf("Expected eastward arrowhead, got %f", f.Arrow.Rotation)
	}
}

// TestComputeFrameTrail tests trail construction from history.
func TestComputeFrameTrail(t *testing.T) {
	h, m := flightHistory(4, deg(90), deg(200))
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	// 4 samples plus the current position make 5 points
	if len(f.Trail) != 4 {
		t.Fatalf("Expected 4 trail segments, got %d", len(f.Trail))
	}
	last := f.Trail[len(f.Trail)-1]
	if !near(last.Points[len(last.Points)-1], m.Position, 1e-9) {
		t.Errorf("Expected trail to end at the aircraft, got %+v", last.Points[len(last.Points)-1])
	}
	if math.Abs(f.Trail[0].Opacity-0.05) > 1e-9 || math.Abs(last.Opacity-0.7) > 1e-9 {
		t.Errorf("Unexpected opacity range %f..%f", f.Trail[0].Opacity, last.Opacity)
	}
}

// TestComputeFrameGrounded tests suppression for aircraft on the ground.
func TestComputeFrameGrounded(t *testing.T) {
	h, m := flightHistory(10, deg(90), deg(200))
	m.Grounded = true

	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	if f.Skip != SkipGrounded {
		t.Errorf("Expected skip grounded, got %s", f.Skip)
	}
	if len(f.Predicted) != 0 || f.Arrow != nil {
		t.Error("Expected no predicted path for a grounded aircraft")
	}
	if len(f.Trail) != 0 {
		t.Error("Expected no trail for a grounded aircraft")
	}
	if !f.Grounded || f.Position != m.Position {
		t.Errorf("Expected marker state to be kept, got %+v", f)
	}
}

// TestComputeFrameMissingData tests that unknown kinematics skip only the prediction.
func TestComputeFrameMissingData(t *testing.T) {
	t.Run("No track", func(t *testing.T) {
		h, m := flightHistory(3, nil, deg(200))
		f := ComputeFrame("3c6444", m, h, DefaultConfig())

		if f.Skip != SkipMissingData {
			t.Errorf("Expected skip missing-data, got %s", f.Skip)
		}
		if f.HasPrediction() || f.Arrow != nil {
			t.Error("Expected no prediction")
		}
		if len(f.Trail) != 3 {
			t.Errorf("Expected trail of 3 segments, got %d", len(f.Trail))
		}
	})

	t.Run("No ground speed", func(t *testing.T) {
		h, m := flightHistory(3, deg(90), nil)
		f := ComputeFrame("3c6444", m, h, DefaultConfig())

		if f.Skip != SkipMissingData {
			t.Errorf("Expected skip missing-data, got %s", f.Skip)
		}
	})
}

// TestComputeFrameStationary tests that a zero-speed projection is degenerate.
func TestComputeFrameStationary(t *testing.T) {
	h, m := flightHistory(2, deg(90), deg(0))
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	if f.Skip != SkipDegenerate {
		t.Errorf("Expected skip degenerate, got %s", f.Skip)
	}
	if len(f.Predicted) != 0 || f.Arrow != nil {
		t.Error("Expected nothing drawn for a degenerate path")
	}
}

// TestComputeFrameSingleSample tests straight-line prediction without turn data.
func TestComputeFrameSingleSample(t *testing.T) {
	h, m := flightHistory(1, deg(0), deg(200))
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	if f.Skip != SkipNone {
		t.Fatalf("Expected a prediction, got skip %s", f.Skip)
	}
	for i, p := range f.Predicted {
		if math.Abs(p.Lon-m.Position.Lon) > 1e-9 {
			t.Errorf("Point %d left the northbound line: %+v", i, p)
		}
		if i > 0 && p.Lat <= f.Predicted[i-1].Lat {
			t.Errorf("Point %d did not move north", i)
		}
	}
}

// TestFrameClone tests that clones share no memory.
func TestFrameClone(t *testing.T) {
	h, m := flightHistory(4, deg(90), deg(200))
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	c := f.Clone()
	c.Predicted[0].Lat = 0
	c.Trail[0].Points[0].Lat = 0
	c.Arrow.Rotation = 0
	*c.Track = 0

	if f.Predicted[0].Lat == 0 || f.Trail[0].Points[0].Lat == 0 {
		t.Error("Clone shares point slices with the original")
	}
	if f.Arrow.Rotation == 0 || *f.Track == 0 {
		t.Error("Clone shares pointers with the original")
	}
}

// TestComputeFrameAntimeridian tests prediction and trail for an aircraft
// crossing the 180° meridian eastbound.
func TestComputeFrameAntimeridian(t *testing.T) {
	h := NewHistory(15)
	var pos coordinates.Point
	for i := 0; i < 4; i++ {
		pos = coordinates.Destination(coordinates.Point{Lat: 10, Lon: 179.99}, 90, float64(i)*0.6)
		h.Append(Sample{
			Lat:         pos.Lat,
			Lon:         pos.Lon,
			Timestamp:   epoch.Add(time.Duration(i) * 3 * time.Second),
			Track:       deg(90),
			GroundSpeed: deg(200),
		})
	}
	if pos.Lon > 0 {
		t.Fatalf("Expected the last sample past 180°, got %+v", pos)
	}
	m := Motion{Position: pos, Track: deg(90), GroundSpeed: deg(200)}
	f := ComputeFrame("3c6444", m, h, DefaultConfig())

	t.Run("Predicted path is kept", func(t *testing.T) {
		if f.Skip != SkipNone {
			t.Fatalf("Expected a prediction, got skip %s", f.Skip)
		}
		if len(f.Predicted) < 24 {
			t.Errorf("Expected at least 24 predicted points, got %d", len(f.Predicted))
		}
		if math.Abs(f.Arrow.Rotation-90) > 1 {
			t.Errorf("Expected eastward arrowhead, got %f", f.Arrow.Rotation)
		}
	})

	t.Run("Trail stays near the aircraft", func(t *testing.T) {
		if len(f.Trail) != 4 {
			t.Fatalf("Expected 4 trail segments, got %d", len(f.Trail))
		}
		for i, seg := range f.Trail {
			for _, p := range seg.Points {
				if p.Lon < -180 || p.Lon > 180 {
					t.Errorf("Segment %d has longitude out of range: %+v", i, p)
				}
				if d := coordinates.DistanceKm(pos, p); d > 2.5 {
					t.Errorf("Segment %d point %+v is %.1f km from the aircraft", i, p, d)
				}
			}
		}
	})
}
