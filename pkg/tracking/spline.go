package tracking

import (
	"math"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// CardinalPoint interpolates between p1 and p2 on a cardinal spline
// defined by four control points. t runs from 0 (p1) to 1 (p2).
// Tangents are tension*(p2-p0) and tension*(p3-p1); a tension of 0.5
// gives the Catmull-Rom curve. Latitude and longitude are interpolated
// independently.
func CardinalPoint(p0, p1, p2, p3 coordinates.Point, t, tension float64) coordinates.Point {
	t2 := t * t
	t3 := t2 * t

	// Hermite basis, with h00 folded in as 1-h01 so that coincident
	// control points reproduce their value exactly
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	interp := func(a, b, c, d float64) float64 {
		m1 := tension * (c - a)
		m2 := tension * (d - b)
		return b + h01*(c-b) + h10*m1 + h11*m2
	}

	return coordinates.Point{
		Lat: interp(p0.Lat, p1.Lat, p2.Lat, p3.Lat),
		Lon: interp(p0.Lon, p1.Lon, p2.Lon, p3.Lon),
	}
}

// controlPoints returns the four control points around segment i of pts,
// repeating the end points at the boundaries.
func controlPoints(pts []coordinates.Point, i int) (p0, p1, p2, p3 coordinates.Point) {
	last := len(pts) - 1
	return pts[max(i-1, 0)], pts[i], pts[min(i+1, last)], pts[min(i+2, last)]
}

// unwrapLongitudes returns a copy of pts in which each longitude is
// shifted by whole turns to lie within 180 degrees of its predecessor, so
// a polyline crossing the antimeridian stays continuous for interpolation.
// Points that need no shift keep their exact value.
func unwrapLongitudes(pts []coordinates.Point) []coordinates.Point {
	out := append([]coordinates.Point(nil), pts...)
	for i := 1; i < len(out); i++ {
		d := out[i].Lon - out[i-1].Lon
		if math.Abs(d) > 180 {
			out[i].Lon = out[i-1].Lon + coordinates.NormalizeAngle(d)
		}
	}
	return out
}

// wrapLongitudes folds longitudes back into [-180, 180] in place.
func wrapLongitudes(pts []coordinates.Point) []coordinates.Point {
	for i := range pts {
		pts[i].Lon = coordinates.NormalizeLongitude(pts[i].Lon)
	}
	return pts
}
