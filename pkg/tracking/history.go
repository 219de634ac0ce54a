package tracking

import (
	"time"

	"github.com/unklstewy/planefinder/pkg/coordinates"
)

// Sample is one observed position of a tracked aircraft.
type Sample struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`

	// Optional kinematics, nil when the feed did not report them
	Track       *float64 `json:"track,omitempty"`
	GroundSpeed *float64 `json:"ground_speed,omitempty"`
	Altitude    *float64 `json:"altitude,omitempty"`
}

// Point returns the sample position.
func (s Sample) Point() coordinates.Point {
	return coordinates.Point{Lat: s.Lat, Lon: s.Lon}
}

// History is a fixed-capacity FIFO of position samples.
// Appending to a full history evicts the oldest sample in O(1).
// Samples with identical timestamps are kept as-is.
type History struct {
	buf   []Sample
	start int
	n     int
}

// NewHistory creates an empty history holding at most capacity samples.
// Capacities below one are raised to one.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

// Append pushes s as the newest sample, evicting the oldest when full.
func (h *History) Append(s Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.n
}

// Cap returns the maximum number of stored samples.
func (h *History) Cap() int {
	return len(h.buf)
}

// At returns the i-th sample, 0 being the oldest.
// It panics if i is out of range.
func (h *History) At(i int) Sample {
	if i < 0 || i >= h.n {
		panic("tracking: history index out of range")
	}
	return h.buf[(h.start+i)%len(h.buf)]
}

// Samples returns a copy of the stored samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, h.n)
	for i := range out {
		s := h.At(i)
		s.Track = copyFloat(s.Track)
		s.GroundSpeed = copyFloat(s.GroundSpeed)
		s.Altitude = copyFloat(s.Altitude)
		out[i] = s
	}
	return out
}

// Points returns the stored positions, oldest first.
func (h *History) Points() []coordinates.Point {
	out := make([]coordinates.Point, h.n)
	for i := range out {
		out[i] = h.At(i).Point()
	}
	return out
}

// Clear drops all samples.
func (h *History) Clear() {
	clear(h.buf)
	h.start = 0
	h.n = 0
}
