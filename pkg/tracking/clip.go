package tracking

import "github.com/unklstewy/planefinder/pkg/coordinates"

// Arrowhead marks the end of a predicted path.
type Arrowhead struct {
	Position coordinates.Point `json:"position"`

	// Rotation is the direction of travel in degrees [0, 360)
	Rotation float64 `json:"rotation"`
}

// ClipResult is the outcome of clipping a smoothed predicted path.
type ClipResult struct {
	// Path holds the surviving points in order; empty when degenerate
	Path []coordinates.Point

	// Arrow is set only for drawable paths
	Arrow *Arrowhead

	// Degenerate reports that fewer than two distinct points survived
	Degenerate bool
}

// Clip drops every point of path farther than maxDistanceKm from anchor.
// When fewer than two distinct coordinate pairs remain the result is
// degenerate and carries nothing to draw. Otherwise an arrowhead is placed
// at the last surviving point, rotated along the last two points of the
// unclipped path.
func Clip(path []coordinates.Point, anchor coordinates.Point, maxDistanceKm float64) ClipResult {
	kept := make([]coordinates.Point, 0, len(path))
	for _, p := range path {
		if coordinates.DistanceKm(anchor, p) <= maxDistanceKm {
			kept = append(kept, p)
		}
	}

	if countUnique(kept) < 2 {
		return ClipResult{Degenerate: true}
	}

	n := len(path)
	return ClipResult{
		Path: kept,
		Arrow: &Arrowhead{
			Position: kept[len(kept)-1],
			Rotation: coordinates.Bearing(path[n-2], path[n-1]),
		},
	}
}

// countUnique counts distinct coordinate pairs, stopping at two.
func countUnique(points []coordinates.Point) int {
	seen := make(map[string]struct{}, 2)
	for _, p := range points {
		seen[p.Key()] = struct{}{}
		if len(seen) >= 2 {
			break
		}
	}
	return len(seen)
}
