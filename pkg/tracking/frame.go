package tracking

import "github.com/unklstewy/planefinder/pkg/coordinates"

// SkipReason explains why no predicted path was produced for an entity.
type SkipReason string

const (
	SkipNone        SkipReason = "none"
	SkipGrounded    SkipReason = "grounded"
	SkipMissingData SkipReason = "missing-data"
	SkipDegenerate  SkipReason = "degenerate"
)

func (r SkipReason) String() string {
	return string(r)
}

// Frame is everything drawn for one entity in one tick. It is rebuilt from
// scratch on every update and replaces the previous frame wholesale.
type Frame struct {
	ID       string            `json:"id"`
	Position coordinates.Point `json:"position"`

	// Heading for the aircraft marker, nil when unknown
	Track *float64 `json:"track,omitempty"`

	Grounded bool `json:"grounded"`

	// Predicted is the clipped predicted path; empty when Skip != SkipNone
	Predicted []coordinates.Point `json:"predicted,omitempty"`
	Arrow     *Arrowhead          `json:"arrow,omitempty"`
	Skip      SkipReason          `json:"skip"`

	// Trail segments, oldest first
	Trail []TrailSegment `json:"trail,omitempty"`
}

// HasPrediction reports whether the frame carries a predicted path.
func (f Frame) HasPrediction() bool {
	return f.Skip == SkipNone && len(f.Predicted) > 0
}

// Clone returns a deep copy of f.
func (f Frame) Clone() Frame {
	out := f
	if f.Track != nil {
		track := *f.Track
		out.Track = &track
	}
	out.Predicted = append([]coordinates.Point(nil), f.Predicted...)
	if f.Arrow != nil {
		arrow := *f.Arrow
		out.Arrow = &arrow
	}
	if f.Trail != nil {
		out.Trail = make([]TrailSegment, len(f.Trail))
		for i, seg := range f.Trail {
			out.Trail[i] = TrailSegment{
				Points:  append([]coordinates.Point(nil), seg.Points...),
				Opacity: seg.Opacity,
			}
		}
	}
	return out
}

// Motion is the current kinematic state a frame is computed from.
type Motion struct {
	Position    coordinates.Point
	Track       *float64
	GroundSpeed *float64
	Grounded    bool
}

// ComputeFrame runs the full prediction and trail pipeline for one entity.
// history must already contain the current sample.
//
// Grounded entities get an empty frame. A missing track or ground speed
// suppresses only the predicted path; the trail is still built.
func ComputeFrame(id string, m Motion, history *History, cfg Config) Frame {
	f := Frame{
		ID:       id,
		Position: m.Position,
		Track:    m.Track,
		Grounded: m.Grounded,
	}
	if m.Grounded {
		f.Skip = SkipGrounded
		return f
	}

	f.Skip = predict(&f, m, history, cfg)

	raw := append(history.Points(), m.Position)
	f.Trail = BuildTrail(MovingAverage(raw), cfg.TrailSubdivisions, cfg.SplineTension, cfg.MinOpacity, cfg.MaxOpacity)
	return f
}

func predict(f *Frame, m Motion, history *History, cfg Config) SkipReason {
	if m.Track == nil || m.GroundSpeed == nil {
		return SkipMissingData
	}

	turnRate := EstimateTurnRate(history)
	raw := Project(m.Position, *m.Track, turnRate, *m.GroundSpeed, cfg.LookAheadMinutes, cfg.Steps)
	smoothed := SmoothPredicted(raw, m.Position, cfg.SmoothingSamples, cfg.SplineTension)

	clipped := Clip(smoothed, m.Position, cfg.MaxClipDistanceKm)
	if clipped.Degenerate {
		return SkipDegenerate
	}
	f.Predicted = clipped.Path
	f.Arrow = clipped.Arrow
	return SkipNone
}
