package maplayer

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// GeoJSON returns the current map as a FeatureCollection. Markers and
// arrowheads are Points, predicted paths and trail segments LineStrings.
// Every feature carries kind, icao and handle properties, plus rotation
// or opacity where they apply.
func (l *Layer) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, op := range l.DrawOps() {
		fc.Append(feature(op))
	}
	return fc
}

func feature(op Op) *geojson.Feature {
	var geom orb.Geometry
	switch op.Kind {
	case DrawMarker, DrawArrow:
		geom = toPoint(*op.Position)
	default:
		line := make(orb.LineString, len(op.Points))
		for i, p := range op.Points {
			line[i] = toPoint(p)
		}
		geom = line
	}

	f := geojson.NewFeature(geom)
	f.ID = op.Handle
	f.Properties["kind"] = featureKind(op.Kind)
	f.Properties["icao"] = op.ICAO
	f.Properties["handle"] = op.Handle
	if op.Rotation != nil {
		f.Properties["rotation"] = *op.Rotation
	}
	if op.Opacity != nil {
		f.Properties["opacity"] = *op.Opacity
	}
	if op.Kind == DrawMarker {
		f.Properties["grounded"] = op.Grounded
		f.Properties["military"] = op.Military
	}
	return f
}

func featureKind(k Kind) string {
	switch k {
	case DrawMarker:
		return "marker"
	case DrawPredicted:
		return "predicted"
	case DrawArrow:
		return "arrow"
	case DrawTrailSegment:
		return "trail"
	}
	return string(k)
}

// GeoJSON coordinates are longitude first.
func toPoint(p coordinates.Point) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
