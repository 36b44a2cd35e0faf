// Package series provides the fixed-capacity rolling history used for
// every chart in sysgraph. A Series keeps the most recent samples of one
// metric stream, oldest first, and evicts the oldest sample once full.
package series

import "sync"

// DefaultCapacity is the number of samples kept per stream. At the default
// one-second tick this covers the last thirty seconds, which is also the
// number of points the chart renderer lays out.
const DefaultCapacity = 30

// Series is a circular buffer of float32 samples.
//
// A single writer (the owning collector) calls Append while any number of
// readers call Snapshot. Both take the same lock, so a snapshot never
// observes a half-written buffer.
type Series struct {
	mu    sync.Mutex
	data  []float32
	head  int // next write position
	count int // number of valid samples
}

// New creates a Series holding at most capacity samples.
// A capacity <= 0 falls back to DefaultCapacity.
func New(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{data: make([]float32, capacity)}
}

// Append adds v as the newest sample, evicting the oldest one when the
// series is full.
func (s *Series) Append(v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.data) == 0 {
		// Zero-value Series.
		s.data = make([]float32, DefaultCapacity)
	}
	s.data[s.head] = v
	s.head = (s.head + 1) % len(s.data)
	if s.count < len(s.data) {
		s.count++
	}
}

// Snapshot returns a copy of the samples in append order (oldest first).
// The returned slice is owned by the caller.
func (s *Series) Snapshot() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float32, s.count)
	if s.count == 0 {
		return out
	}
	size := len(s.data)
	start := (s.head - s.count + size) % size
	for i := 0; i < s.count; i++ {
		out[i] = s.data[(start+i)%size]
	}
	return out
}

// Last returns the newest sample. ok is false when the series is empty.
func (s *Series) Last() (v float32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return 0, false
	}
	size := len(s.data)
	return s.data[(s.head-1+size)%size], true
}

// Len returns the number of samples currently held.
func (s *Series) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Cap returns the fixed capacity.
func (s *Series) Cap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return DefaultCapacity
	}
	return len(s.data)
}
