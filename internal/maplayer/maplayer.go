// Package maplayer turns tracker frames into map drawing operations.
//
// The layer owns every map object handle. Each tick it removes the objects
// previously drawn for an entity and draws the entity's new frame, so a
// client that replays the ops in order always mirrors the tracker.
package maplayer

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/unklstewy/planefinder/pkg/coordinates"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

// Kind names a drawing operation.
type Kind string

const (
	DrawMarker         Kind = "draw-marker"
	RemoveMarker       Kind = "remove-marker"
	DrawPredicted      Kind = "draw-predicted"
	RemovePredicted    Kind = "remove-predicted"
	DrawArrow          Kind = "draw-arrow"
	RemoveArrow        Kind = "remove-arrow"
	DrawTrailSegment   Kind = "draw-trail-segment"
	RemoveTrailSegment Kind = "remove-trail-segment"
)

// IsDraw reports whether k creates a map object.
func (k Kind) IsDraw() bool {
	switch k {
	case DrawMarker, DrawPredicted, DrawArrow, DrawTrailSegment:
		return true
	}
	return false
}

// Op is one drawing operation. Removals carry only Kind, Handle and ICAO.
type Op struct {
	Kind   Kind   `json:"kind"`
	Handle string `json:"handle"`
	ICAO   string `json:"icao"`

	// Position of a marker or arrowhead
	Position *coordinates.Point `json:"position,omitempty"`

	// Rotation in degrees for markers with a known track and for arrowheads
	Rotation *float64 `json:"rotation,omitempty"`

	// Points of a predicted path or trail segment
	Points []coordinates.Point `json:"points,omitempty"`

	// Opacity of a trail segment
	Opacity *float64 `json:"opacity,omitempty"`

	Grounded bool `json:"grounded,omitempty"`
	Military bool `json:"military,omitempty"`
}

// Style holds marker styling derived from airframe metadata.
type Style struct {
	Military bool
}

// objects are the ops currently on the map for one entity.
type objects struct {
	marker    *Op
	predicted *Op
	arrow     *Op
	trail     []*Op
}

func (o *objects) drawn() []*Op {
	var out []*Op
	if o.marker != nil {
		out = append(out, o.marker)
	}
	if o.predicted != nil {
		out = append(out, o.predicted)
	}
	if o.arrow != nil {
		out = append(out, o.arrow)
	}
	return append(out, o.trail...)
}

// Layer tracks the map objects drawn for every entity.
type Layer struct {
	mu        sync.Mutex
	entities  map[string]*objects
	styles    map[string]Style
	newHandle func() string
}

// New creates an empty layer.
func New() *Layer {
	return &Layer{
		entities:  make(map[string]*objects),
		styles:    make(map[string]Style),
		newHandle: uuid.NewString,
	}
}

// SetStyle records marker styling for an entity. It applies from the
// entity's next frame on. Ids with nothing on the map are ignored.
func (l *Layer) SetStyle(id string, s Style) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entities[id]; ok {
		l.styles[id] = s
	}
}

// Apply converts one tick into ops. For each frame the entity's previous
// objects are removed before the new ones are drawn; removed entities lose
// all their objects.
func (l *Layer) Apply(res tracking.TickResult) []Op {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ops []Op
	for _, f := range res.Frames {
		ops = l.clear(ops, f.ID)
		ops = l.draw(ops, f)
	}
	for _, id := range res.Removed {
		ops = l.clear(ops, id)
		delete(l.entities, id)
		delete(l.styles, id)
	}
	return ops
}

// DrawOps returns the draw ops that rebuild the current map from scratch,
// grouped by entity in id order.
func (l *Layer) DrawOps() []Op {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.entities))
	for id := range l.entities {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[string])

	var ops []Op
	for _, id := range ids {
		for _, op := range l.entities[id].drawn() {
			ops = append(ops, op.clone())
		}
	}
	return ops
}

// Len returns the number of objects currently drawn.
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, o := range l.entities {
		n += len(o.drawn())
	}
	return n
}

func (l *Layer) clear(ops []Op, id string) []Op {
	o, ok := l.entities[id]
	if !ok {
		return ops
	}
	if o.marker != nil {
		ops = append(ops, removal(RemoveMarker, o.marker))
	}
	if o.predicted != nil {
		ops = append(ops, removal(RemovePredicted, o.predicted))
	}
	if o.arrow != nil {
		ops = append(ops, removal(RemoveArrow, o.arrow))
	}
	for _, seg := range o.trail {
		ops = append(ops, removal(RemoveTrailSegment, seg))
	}
	*o = objects{}
	return ops
}

func (l *Layer) draw(ops []Op, f tracking.Frame) []Op {
	o, ok := l.entities[f.ID]
	if !ok {
		o = &objects{}
		l.entities[f.ID] = o
	}

	pos := f.Position
	o.marker = &Op{
		Kind:     DrawMarker,
		Handle:   l.newHandle(),
		ICAO:     f.ID,
		Position: &pos,
		Rotation: copyFloat(f.Track),
		Grounded: f.Grounded,
		Military: l.styles[f.ID].Military,
	}
	ops = append(ops, o.marker.clone())

	if f.HasPrediction() {
		o.predicted = &Op{
			Kind:   DrawPredicted,
			Handle: l.newHandle(),
			ICAO:   f.ID,
			Points: slices.Clone(f.Predicted),
		}
		ops = append(ops, o.predicted.clone())

		if f.Arrow != nil {
			at := f.Arrow.Position
			rot := f.Arrow.Rotation
			o.arrow = &Op{
				Kind:     DrawArrow,
				Handle:   l.newHandle(),
				ICAO:     f.ID,
				Position: &at,
				Rotation: &rot,
			}
			ops = append(ops, o.arrow.clone())
		}
	}

	for _, seg := range f.Trail {
		opacity := seg.Opacity
		op := &Op{
			Kind:    DrawTrailSegment,
			Handle:  l.newHandle(),
			ICAO:    f.ID,
			Points:  slices.Clone(seg.Points),
			Opacity: &opacity,
		}
		o.trail = append(o.trail, op)
		ops = append(ops, op.clone())
	}
	return ops
}

func removal(kind Kind, drawn *Op) Op {
	return Op{Kind: kind, Handle: drawn.Handle, ICAO: drawn.ICAO}
}

func (op *Op) clone() Op {
	out := *op
	if op.Position != nil {
		p := *op.Position
		out.Position = &p
	}
	out.Rotation = copyFloat(op.Rotation)
	out.Opacity = copyFloat(op.Opacity)
	out.Points = slices.Clone(op.Points)
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
