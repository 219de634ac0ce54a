package tracking

import (
	"math"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// SmoothPredicted resamples a raw predicted polyline along a cardinal
// spline at a fixed number of evenly spaced parameters. The first output
// point is replaced by anchor after resampling. Paths crossing the
// antimeridian are resampled on unwrapped longitudes.
//
// Inputs with fewer than two points are returned as a copy, re-anchored.
func SmoothPredicted(raw []coordinates.Point, anchor coordinates.Point, samples int, tension float64) []coordinates.Point {
	n := len(raw)
	if n < 2 || samples < 2 {
		out := append([]coordinates.Point(nil), raw...)
		if len(out) > 0 {
			out[0] = anchor
		}
		return out
	}

	raw = unwrapLongitudes(raw)
	out := make([]coordinates.Point, samples)
	for k := range out {
		u := float64(k) / float64(samples-1) * float64(n-1)
		i := int(math.Floor(u))
		if i > n-2 {
			i = n - 2
		}
		p0, p1, p2, p3 := controlPoints(raw, i)
		out[k] = CardinalPoint(p0, p1, p2, p3, u-float64(i), tension)
	}
	wrapLongitudes(out)
	out[0] = anchor
	return out
}

// MovingAverage smooths a polyline with a 3-point window. Each output
// point is the mean of the points at i-1, i and i+1, with indices clamped
// to the ends of the input, so end points average in themselves twice.
func MovingAverage(points []coordinates.Point) []coordinates.Point {
	points = unwrapLongitudes(points)
	n := len(points)
	out := make([]coordinates.Point, n)
	for i := range points {
		prev := points[max(i-1, 0)]
		next := points[min(i+1, n-1)]
		out[i] = coordinates.Point{
			Lat: (prev.Lat + points[i].Lat + next.Lat) / 3,
			Lon: (prev.Lon + points[i].Lon + next.Lon) / 3,
		}
	}
	return wrapLongitudes(out)
}
