package tracking

import "github.com/unklstewy/planefinder/pkg/coordinates"

// TrailSegment is one faded piece of a historical trail.
type TrailSegment struct {
	Points  []coordinates.Point `json:"points"`
	Opacity float64             `json:"opacity"`
}

// BuildTrail turns smoothed trail points (oldest first) into segments,
// one per consecutive pair. Each segment is a short Catmull-Rom sub-curve
// through subdivisions+1 points, so adjacent segments join smoothly.
// Opacity ramps linearly from minOpacity on the oldest segment to
// maxOpacity on the newest.
//
// Returns nil for fewer than two points.
func BuildTrail(points []coordinates.Point, subdivisions int, tension, minOpacity, maxOpacity float64) []TrailSegment {
	if len(points) < 2 {
		return nil
	}
	if subdivisions < 1 {
		subdivisions = 1
	}

	points = unwrapLongitudes(points)
	numSegments := len(points) - 1
	denom := float64(max(numSegments-1, 1))

	segments := make([]TrailSegment, numSegments)
	for i := range segments {
		p0, p1, p2, p3 := controlPoints(points, i)

		curve := make([]coordinates.Point, subdivisions+1)
		for j := range curve {
			t := float64(j) / float64(subdivisions)
			curve[j] = CardinalPoint(p0, p1, p2, p3, t, tension)
		}
		wrapLongitudes(curve)

		segments[i] = TrailSegment{
			Points:  curve,
			Opacity: minOpacity + (maxOpacity-minOpacity)*(float64(i)/denom),
		}
	}
	return segments
}
