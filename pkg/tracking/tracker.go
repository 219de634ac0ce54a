package tracking

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/unklstewy/planefinder/pkg/adsb"
	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// Metadata describes an airframe. It only affects styling.
type Metadata struct {
	Registration string `json:"registration,omitempty"`
	Model        string `json:"model,omitempty"`
	TypeCode     string `json:"type_code,omitempty"`
	Operator     string `json:"operator,omitempty"`
	Military     bool   `json:"military"`
}

// Entity is a read-only copy of one tracked aircraft.
type Entity struct {
	ID            string            `json:"id"`
	Callsign      string            `json:"callsign,omitempty"`
	OriginCountry string            `json:"origin_country,omitempty"`
	Position      coordinates.Point `json:"position"`
	Track         *float64          `json:"track,omitempty"`
	GroundSpeed   *float64          `json:"ground_speed,omitempty"`
	Altitude      *float64          `json:"altitude,omitempty"`
	VerticalRate  *float64          `json:"vertical_rate,omitempty"`
	Grounded      bool              `json:"grounded"`
	LastSeen      time.Time         `json:"last_seen"`
	Metadata      *Metadata         `json:"metadata,omitempty"`
	History       []Sample          `json:"history"`
	Frame         Frame             `json:"frame"`
}

type entity struct {
	state   adsb.Aircraft
	meta    *Metadata
	history *History
	frame   Frame
}

// TickResult is the outcome of applying one feed snapshot.
type TickResult struct {
	At time.Time

	// Fetched is the number of states in the feed, before filtering
	Fetched int

	// Frames holds one frame per entity present this tick, in feed order
	Frames []Frame

	// Removed lists entities that left the feed or the search area
	Removed []string
}

// Tracker owns the per-aircraft state of one search area.
// Apply is meant to be called by a single scan loop; reads are safe
// from any goroutine.
type Tracker struct {
	mu       sync.RWMutex
	cfg      Config
	center   coordinates.Point
	radiusKm float64
	entities map[string]*entity
}

// NewTracker creates an empty tracker for the circle of radiusKm around center.
func NewTracker(cfg Config, center coordinates.Point, radiusKm float64) *Tracker {
	return &Tracker{
		cfg:      cfg,
		center:   center,
		radiusKm: radiusKm,
		entities: make(map[string]*entity),
	}
}

// Config returns the tunables the tracker was built with.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Area returns the search circle.
func (t *Tracker) Area() (coordinates.Point, float64) {
	return t.center, t.radiusKm
}

// Apply folds one feed snapshot into the tracker.
//
// States are processed in feed order. Every state with a usable position
// inside the search area appends one sample to its entity's history and
// recomputes the entity's frame. If an id appears more than once the last
// state wins, but each occurrence still appends a sample. Entities that
// are absent from states, or outside the area, are removed.
//
// now stamps samples whose state carries no timestamp.
func (t *Tracker) Apply(states []adsb.Aircraft, now time.Time) TickResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := TickResult{At: now, Fetched: len(states)}
	seen := make(map[string]bool, len(states))
	var order []string

	for _, ac := range states {
		if ac.ICAO == "" || !ac.HasPosition() {
			continue
		}
		pos := coordinates.Point{Lat: ac.Latitude, Lon: ac.Longitude}
		if coordinates.DistanceKm(t.center, pos) > t.radiusKm {
			continue
		}

		e, ok := t.entities[ac.ICAO]
		if !ok {
			e = &entity{history: NewHistory(t.cfg.HistoryCap)}
			t.entities[ac.ICAO] = e
		}
		if !seen[ac.ICAO] {
			seen[ac.ICAO] = true
			order = append(order, ac.ICAO)
		}

		ts := ac.LastSeen
		if ts.IsZero() {
			ts = now
		}
		e.state = ac
		e.history.Append(Sample{
			Lat:         ac.Latitude,
			Lon:         ac.Longitude,
			Timestamp:   ts,
			Track:       ac.Track,
			GroundSpeed: ac.GroundSpeed,
			Altitude:    ac.Altitude,
		})
		e.frame = ComputeFrame(ac.ICAO, Motion{
			Position:    pos,
			Track:       ac.Track,
			GroundSpeed: ac.GroundSpeed,
			Grounded:    ac.OnGround,
		}, e.history, t.cfg)
	}

	for id, e := range t.entities {
		if seen[id] {
			continue
		}
		e.history.Clear()
		delete(t.entities, id)
		result.Removed = append(result.Removed, id)
	}
	slices.Sort(result.Removed)

	result.Frames = make([]Frame, len(order))
	for i, id := range order {
		result.Frames[i] = t.entities[id].frame.Clone()
	}
	return result
}

// SetMetadata attaches airframe details to a tracked entity.
// Unknown ids are ignored.
func (t *Tracker) SetMetadata(id string, meta Metadata) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entities[id]; ok {
		m := meta
		e.meta = &m
	}
}

// Len returns the number of tracked entities.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entities)
}

// Entity returns a copy of one tracked entity.
func (t *Tracker) Entity(id string) (Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entities[id]
	if !ok {
		return Entity{}, false
	}
	return e.snapshot(id), true
}

// Snapshot returns copies of all tracked entities sorted by id.
// The copies share no memory with the tracker.
func (t *Tracker) Snapshot() []Entity {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entity, 0, len(t.entities))
	for id, e := range t.entities {
		out = append(out, e.snapshot(id))
	}
	slices.SortFunc(out, func(a, b Entity) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (e *entity) snapshot(id string) Entity {
	s := e.state
	out := Entity{
		ID:            id,
		Callsign:      s.Callsign,
		OriginCountry: s.OriginCountry,
		Position:      coordinates.Point{Lat: s.Latitude, Lon: s.Longitude},
		Track:         copyFloat(s.Track),
		GroundSpeed:   copyFloat(s.GroundSpeed),
		Altitude:      copyFloat(s.Altitude),
		VerticalRate:  copyFloat(s.VerticalRate),
		Grounded:      s.OnGround,
		LastSeen:      s.LastSeen,
		History:       e.history.Samples(),
		Frame:         e.frame.Clone(),
	}
	if e.meta != nil {
		m := *e.meta
		out.Metadata = &m
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
