package tracking

// EstimateTurnRate returns the rate of track change in degrees per minute,
// taken from the two most recent samples that carry a track.
//
// The difference is the plain subtraction of the two tracks. It is not
// wrapped, so a turn from 350° to 10° reads as -340° rather than +20°.
//
// Returns 0 when fewer than two samples carry a track, or when the newer
// of the two is not strictly later than the older.
func EstimateTurnRate(h *History) float64 {
	var t1, t0 *Sample
	for i := h.Len() - 1; i >= 0; i-- {
		s := h.At(i)
		if s.Track == nil {
			continue
		}
		if t1 == nil {
			t1 = &s
			continue
		}
		t0 = &s
		break
	}
	if t0 == nil {
		return 0
	}

	minutes := t1.Timestamp.Sub(t0.Timestamp).Minutes()
	if minutes <= 0 {
		return 0
	}
	return (*t1.Track - *t0.Track) / minutes
}
