package coordinates

import (
	"fmt"
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile converts nautical miles to kilometers
	KmPerNauticalMile = 1.852

	// FeetToMeters converts feet to meters
	FeetToMeters = 0.3048

	// KnotsToMetersPerSecond converts knots to meters per second
	KnotsToMetersPerSecond = 1852.0 / 3600.0
)

// Point is a position on the Earth's surface in decimal degrees (WGS84).
type Point struct {
	// Lat in decimal degrees (-90 to +90), positive = North
	Lat float64 `json:"lat"`

	// Lon in decimal degrees (-180 to +180), positive = East
	Lon float64 `json:"lon"`
}

// Key returns the exact coordinate pair as a string.
// Two points share a key only if both components are bit-for-bit equal
// after formatting, which is what path de-duplication relies on.
func (p Point) Key() string {
	return fmt.Sprintf("%v,%v", p.Lat, p.Lon)
}

// NormalizeTrack ensures a track or bearing is in the range [0, 360).
func NormalizeTrack(track float64) float64 {
	t := math.Mod(track, 360.0)
	if t < 0 {
		t += 360.0
	}
	return t
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angle float64) float64 {
	for angle > 180.0 {
		angle -= 360.0
	}
	for angle < -180.0 {
		angle += 360.0
	}
	return angle
}

// NormalizeLongitude wraps a longitude into [-180, 180].
func NormalizeLongitude(lon float64) float64 {
	if lon > 180.0 {
		lon -= 360.0
	} else if lon < -180.0 {
		lon += 360.0
	}
	return lon
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Uses spherical trigonometry to calculate the bearing along a great circle.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Point) float64 {
	lat1 := from.Lat * DegreesToRadians
	lon1 := from.Lon * DegreesToRadians
	lat2 := to.Lat * DegreesToRadians
	lon2 := to.Lon * DegreesToRadians

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	// Normalize to 0-360
	if bearing < 0 {
		bearing += 360
	}

	return bearing
}

// DistanceKm calculates the great-circle distance between two points.
// Uses the Haversine formula for accuracy over short and long distances.
func DistanceKm(from, to Point) float64 {
	lat1Rad := from.Lat * DegreesToRadians
	lon1Rad := from.Lon * DegreesToRadians
	lat2Rad := to.Lat * DegreesToRadians
	lon2Rad := to.Lon * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	// Haversine formula
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Destination calculates the point reached by travelling distanceKm along a
// great circle from start on the given initial bearing.
//
// Parameters:
//   - start: Starting position
//   - bearingDeg: Initial bearing in degrees (0=North, 90=East)
//   - distanceKm: Distance to travel in kilometers
//
// Returns: Destination point with longitude normalized to [-180, 180]
func Destination(start Point, bearingDeg, distanceKm float64) Point {
	if distanceKm == 0 {
		return start
	}

	latRad := start.Lat * DegreesToRadians
	lonRad := start.Lon * DegreesToRadians
	brngRad := bearingDeg * DegreesToRadians

	// Angular distance (distance / Earth radius)
	d := distanceKm / EarthRadiusKm

	// lat2 = asin(sin(lat1)*cos(d) + cos(lat1)*sin(d)*cos(brng))
	newLatRad := math.Asin(
		math.Sin(latRad)*math.Cos(d) +
			math.Cos(latRad)*math.Sin(d)*math.Cos(brngRad),
	)

	// lon2 = lon1 + atan2(sin(brng)*sin(d)*cos(lat1), cos(d)-sin(lat1)*sin(lat2))
	newLonRad := lonRad + math.Atan2(
		math.Sin(brngRad)*math.Sin(d)*math.Cos(latRad),
		math.Cos(d)-math.Sin(latRad)*math.Sin(newLatRad),
	)

	return Point{
		Lat: newLatRad * RadiansToDegrees,
		Lon: NormalizeLongitude(newLonRad * RadiansToDegrees),
	}
}

// BoundingBox returns the latitude/longitude box enclosing a circle of
// radiusKm around center. The box is clamped to valid latitudes; it does
// not split across the antimeridian.
func BoundingBox(center Point, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	dLat := (radiusKm / EarthRadiusKm) * RadiansToDegrees

	cosLat := math.Cos(center.Lat * DegreesToRadians)
	dLon := 180.0
	if cosLat > 1e-9 {
		dLon = math.Min(180.0, dLat/cosLat)
	}

	minLat = math.Max(-90.0, center.Lat-dLat)
	maxLat = math.Min(90.0, center.Lat+dLat)
	minLon = math.Max(-180.0, center.Lon-dLon)
	maxLon = math.Min(180.0, center.Lon+dLon)
	return minLat, minLon, maxLat, maxLon
}
