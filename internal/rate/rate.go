// Package rate turns monotonically increasing OS counters (bytes sent,
// milliseconds busy) into per-second rates between consecutive reads.
package rate

import "time"

// Meter tracks one cumulative counter. The zero value is ready to use.
// A Meter is not safe for concurrent use; collectors serialize refreshes.
type Meter struct {
	last   uint64
	lastAt time.Time
}

// Observe records the counter value v read at time at and returns the
// per-second rate since the previous observation. The first observation,
// a counter reset (v below the previous value) or a non-positive interval
// yields ok == false and only re-seeds the meter.
func (m *Meter) Observe(v uint64, at time.Time) (perSec float64, ok bool) {
	prev, prevAt := m.last, m.lastAt
	m.last, m.lastAt = v, at

	if prevAt.IsZero() || v < prev {
		return 0, false
	}
	elapsed := at.Sub(prevAt).Seconds()
	if elapsed <= 0 {
		return 0, false
	}
	return float64(v-prev) / elapsed, true
}

// Fraction returns the share of elapsed wall time that a cumulative
// duration counter advanced, e.g. disk busy time. Values are clamped to
// [0,1].
func (m *Meter) Fraction(busy time.Duration, at time.Time) (float64, bool) {
	perSec, ok := m.Observe(uint64(busy), at)
	if !ok {
		return 0, false
	}
	f := perSec / float64(time.Second)
	if f > 1 {
		f = 1
	}
	return f, true
}
