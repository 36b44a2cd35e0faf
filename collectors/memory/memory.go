// Package memory samples physical and commit memory usage.
package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// entryName is the display name of the single memory entry.
const entryName = "Memory"

// Sample is one reading of the memory counters, in bytes.
//
// On Linux PagedPool maps to reclaimable slab and NonPagedPool to
// unreclaimable slab.
type Sample struct {
	Total        uint64
	Used         uint64
	Available    uint64
	Committed    uint64
	CommitLimit  uint64
	Cached       uint64
	PagedPool    uint64
	NonPagedPool uint64
}

// Source reads the platform memory counters.
type Source interface {
	Sample(ctx context.Context) (Sample, error)
}

// Stats is a consistent copy of the collector state.
type Stats struct {
	Sample

	// Usage is Used/Total in [0,1], or 0 when Total is unknown.
	Usage float64

	History []float32
}

// Collector tracks system memory as a single entry.
type Collector struct {
	opts    collectors.Options
	log     *slog.Logger
	src     Source
	breaker *retry.Breaker

	refreshMu sync.Mutex
	closeOnce sync.Once

	mu      sync.RWMutex
	sample  Sample
	usage   float64
	history *series.Series
}

var (
	_ collectors.Collector      = (*Collector)(nil)
	_ collectors.HealthReporter = (*Collector)(nil)
)

// New creates a memory collector reading from src.
func New(src Source, opts collectors.Options) *Collector {
	return &Collector{
		opts:    opts,
		log:     opts.Log(),
		src:     src,
		breaker: opts.NewBreaker(entryName),
		history: opts.NewSeries(),
	}
}

// Factory builds a memory collector on the platform source. It is meant
// to be registered with a collectors.Registry.
func Factory(ctx context.Context, opts collectors.Options) collectors.Collector {
	src, err := NewSource()
	if err != nil {
		opts.Log().Warn("memory source unavailable", "domain", collectors.Memory.String(), "error", err)
		return collectors.Empty(collectors.Memory)
	}
	return New(src, opts)
}

// Domain implements collectors.Collector.
func (c *Collector) Domain() collectors.Domain { return collectors.Memory }

// Refresh reads the counters once and appends the usage percentage to
// the history. A failed read leaves the previous values in place.
func (c *Collector) Refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var s Sample
	ok := c.opts.SampleEntry(ctx, c.log, collectors.Memory, entryName, c.breaker, func(ctx context.Context) error {
		var err error
		s, err = c.src.Sample(ctx)
		return err
	})
	if !ok {
		return
	}

	usage := Usage(s)

	c.mu.Lock()
	c.sample = s
	c.usage = usage
	c.mu.Unlock()

	c.history.Append(collectors.Percent(usage))
}

// Usage returns Used/Total clamped to [0,1], or 0 when Total is 0.
func Usage(s Sample) float64 {
	if s.Total == 0 {
		return 0
	}
	return collectors.Clamp01(float64(s.Used) / float64(s.Total))
}

// Stats returns the latest reading together with a copy of the history.
func (c *Collector) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Sample:  c.sample,
		Usage:   c.usage,
		History: c.history.Snapshot(),
	}
}

// Count is always 1.
func (c *Collector) Count() int { return 1 }

// EntryName implements collectors.Collector.
func (c *Collector) EntryName(i int) string {
	if i != 0 {
		return ""
	}
	return entryName
}

// History implements collectors.Collector.
func (c *Collector) History(i int) []float32 {
	if i != 0 {
		return nil
	}
	return c.history.Snapshot()
}

func (c *Collector) NextIndex(i int) int { return collectors.NextIndex(i, 1) }
func (c *Collector) PrevIndex(i int) int { return collectors.PrevIndex(i, 1) }

// Health reports the breaker guarding the usage read.
func (c *Collector) Health(i int) (retry.Stats, bool) {
	if i != 0 {
		return retry.Stats{}, false
	}
	return collectors.BreakerStats(c.breaker)
}

// ResetHealth closes the usage breaker.
func (c *Collector) ResetHealth(i int) {
	if i == 0 && c.breaker != nil {
		c.breaker.Reset()
	}
}

// Close releases the source if it holds OS handles.
func (c *Collector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if cl, ok := c.src.(io.Closer); ok {
			err = cl.Close()
		}
	})
	return err
}
