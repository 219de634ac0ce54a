package tracking

import (
	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// Project steps an aircraft forward along great circles, turning at a
// constant rate, and returns the raw predicted polyline.
//
// The look-ahead window is split into steps sub-intervals. Each step first
// advances the running track by turnRate*stepDuration, then moves the
// running position by the distance covered at groundSpeed during one step.
//
// Parameters:
//   - start: Current aircraft position
//   - initialTrack: Current track in degrees
//   - turnRate: Rate of track change in degrees per minute
//   - groundSpeed: Speed over ground in meters per second
//   - lookAheadMinutes: Length of the projection window
//   - steps: Number of sub-intervals
//
// Returns: steps+1 points; the first is start itself
func Project(start coordinates.Point, initialTrack, turnRate, groundSpeed, lookAheadMinutes float64, steps int) []coordinates.Point {
	out := make([]coordinates.Point, 0, steps+1)
	out = append(out, start)
	if steps <= 0 {
		return out
	}

	stepMinutes := lookAheadMinutes / float64(steps)
	stepKm := groundSpeed * 60 * stepMinutes / 1000

	track := initialTrack
	pos := start
	for i := 0; i < steps; i++ {
		track = coordinates.NormalizeTrack(track + turnRate*stepMinutes)
		pos = coordinates.Destination(pos, track, stepKm)
		out = append(out, pos)
	}
	return out
}
