// Package scan drives the tracker from an ADS-B feed.
//
// A Scanner fetches the search area once at start and then on every
// update interval, or sooner when a scan is forced. Ticks never overlap:
// a new fetch starts only after the previous tick has been applied.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/unklstewy/planefinder/internal/maplayer"
	"github.com/unklstewy/planefinder/pkg/adsb"
	"github.com/unklstewy/planefinder/pkg/metadata"
	"github.com/unklstewy/planefinder/pkg/tracking"
)

// MetadataLookup resolves airframe details by ICAO address.
type MetadataLookup interface {
	Lookup(ctx context.Context, icao string) (metadata.Aircraft, error)
}

// Batch is what subscribers receive after each successful tick.
type Batch struct {
	Result tracking.TickResult
	Ops    []maplayer.Op
}

// Subscriber is called synchronously after each tick, in registration order.
type Subscriber func(Batch)

// Options configures a Scanner. Source and Tracker are required.
type Options struct {
	Source  adsb.DataSource
	Tracker *tracking.Tracker

	// Layer receives every tick result; may be nil
	Layer *maplayer.Layer

	// Metadata is consulted once per new entity; may be nil
	Metadata MetadataLookup

	Interval time.Duration
	Retry    adsb.RetryConfig
	Logger   *slog.Logger
}

// Stats summarizes scanner activity.
type Stats struct {
	Ticks     int       `json:"ticks"`
	Failures  int       `json:"failures"`
	LastTick  time.Time `json:"last_tick"`
	LastError string    `json:"last_error,omitempty"`
	Tracked   int       `json:"tracked"`
}

// Scanner polls a DataSource and feeds the tracker.
type Scanner struct {
	source   adsb.DataSource
	tracker  *tracking.Tracker
	layer    *maplayer.Layer
	meta     MetadataLookup
	interval time.Duration
	retry    adsb.RetryConfig
	logger   *slog.Logger
	now      func() time.Time

	// tickMu serializes ticks
	tickMu sync.Mutex
	force  chan struct{}

	lookups   chan string
	requested map[string]bool

	mu    sync.Mutex
	subs  []Subscriber
	stats Stats
}

// New creates a scanner.
func New(opts Options) (*Scanner, error) {
	if opts.Source == nil {
		return nil, errors.New("scan: source is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("scan: tracker is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("scan: interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		source:    opts.Source,
		tracker:   opts.Tracker,
		layer:     opts.Layer,
		meta:      opts.Metadata,
		interval:  opts.Interval,
		retry:     opts.Retry,
		logger:    logger.With("component", "scan", "source", opts.Source.Name()),
		now:       time.Now,
		force:     make(chan struct{}, 1),
		lookups:   make(chan string, 256),
		requested: make(map[string]bool),
	}, nil
}

// OnTick registers a subscriber for tick batches.
func (s *Scanner) OnTick(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// ForceScan asks Run for an extra scan without waiting for the interval.
// Requests made while one is already pending are coalesced; the return
// value reports whether this call queued a new one.
func (s *Scanner) ForceScan() bool {
	select {
	case s.force <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stats returns a copy of the scanner counters.
func (s *Scanner) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Tracked = s.tracker.Len()
	return st
}

// Run scans immediately and then every interval until ctx is done.
// Fetch failures are logged and never stop the loop.
func (s *Scanner) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	if s.meta != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.resolveMetadata(ctx)
		}()
	}
	defer wg.Wait()

	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return nil
		case <-ticker.C:
			s.Scan(ctx)
		case <-s.force:
			s.Scan(ctx)
			ticker.Reset(s.interval)
		}
	}
}

// Scan runs one tick: fetch with retry, apply to the tracker and layer,
// then notify subscribers. When the fetch fails the tracker is left
// untouched and the error is returned.
func (s *Scanner) Scan(ctx context.Context) (tracking.TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	center, radiusKm := s.tracker.Area()

	states, err := adsb.RetryWithBackoffResult(ctx, s.retry, func() ([]adsb.Aircraft, error) {
		return s.source.GetAircraft(ctx, center.Lat, center.Lon, radiusKm)
	})
	if err != nil {
		s.mu.Lock()
		s.stats.Failures++
		s.stats.LastError = err.Error()
		s.mu.Unlock()

		if ctx.Err() == nil {
			s.logger.Warn("fetch failed, keeping previous state", "error", err)
		}
		return tracking.TickResult{}, err
	}

	res := s.tracker.Apply(states, s.now())

	var ops []maplayer.Op
	if s.layer != nil {
		ops = s.layer.Apply(res)
	}
	s.queueLookups(res)

	s.mu.Lock()
	s.stats.Ticks++
	s.stats.LastTick = res.At
	s.stats.LastError = ""
	subs := append([]Subscriber(nil), s.subs...)
	s.mu.Unlock()

	s.logger.Info("tick",
		"fetched", res.Fetched,
		"tracked", s.tracker.Len(),
		"removed", len(res.Removed),
		"ops", len(ops),
		"duration", time.Since(start))

	batch := Batch{Result: res, Ops: ops}
	for _, fn := range subs {
		fn(batch)
	}
	return res, nil
}

// queueLookups requests metadata for entities seen for the first time.
// It runs under tickMu.
func (s *Scanner) queueLookups(res tracking.TickResult) {
	if s.meta == nil {
		return
	}
	for _, id := range res.Removed {
		delete(s.requested, id)
	}
	for _, f := range res.Frames {
		if s.requested[f.ID] {
			continue
		}
		select {
		case s.lookups <- f.ID:
			s.requested[f.ID] = true
		default:
			// queue full; retried next tick
		}
	}
}

func (s *Scanner) resolveMetadata(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.lookups:
			s.lookup(ctx, id)
		}
	}
}

func (s *Scanner) lookup(ctx context.Context, id string) {
	ac, err := s.meta.Lookup(ctx, id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return
	case err != nil:
		if ctx.Err() == nil {
			s.logger.Debug("metadata lookup failed", "icao", id, "error", err)
		}
		return
	}

	s.tracker.SetMetadata(id, tracking.Metadata{
		Registration: ac.Registration,
		Model:        ac.Model,
		TypeCode:     ac.TypeCode,
		Operator:     ac.Owner,
		Military:     ac.Military,
	})
	if s.layer != nil {
		s.layer.SetStyle(id, maplayer.Style{Military: ac.Military})
	}
}
