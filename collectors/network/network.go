// Package network samples per-interface throughput against link speed.
package network

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// InterfaceInfo describes an interface found at enumeration.
type InterfaceInfo struct {
	Name string

	// BandwidthBitsPerSec is the link speed, or 0 when unknown.
	BandwidthBitsPerSec uint64
}

// Sample is one throughput reading. The first read of an interface
// reports zero.
type Sample struct {
	SentPerSec uint64
	RecvPerSec uint64
}

// Source enumerates interfaces and reads their byte counters.
type Source interface {
	Interfaces(ctx context.Context) ([]InterfaceInfo, error)
	Sample(ctx context.Context, name string) (Sample, error)
}

// Interface is a consistent copy of one entry.
type Interface struct {
	InterfaceInfo
	Sample

	// Usage is (sent+recv) bits per second over the link speed, in [0,1].
	Usage float64

	History []float32
}

type entry struct {
	info    InterfaceInfo
	breaker *retry.Breaker
	history *series.Series
	last    Sample
	usage   float64
}

// Collector tracks every interface found at construction.
type Collector struct {
	opts collectors.Options
	log  *slog.Logger
	src  Source

	refreshMu sync.Mutex
	closeOnce sync.Once

	mu      sync.RWMutex
	entries []*entry
}

var (
	_ collectors.Collector      = (*Collector)(nil)
	_ collectors.HealthReporter = (*Collector)(nil)
)

// New enumerates interfaces from src. If enumeration fails the
// collector is valid but has no entries.
func New(ctx context.Context, src Source, opts collectors.Options) *Collector {
	c := &Collector{opts: opts, log: opts.Log(), src: src}

	infos, err := src.Interfaces(ctx)
	if err != nil {
		c.log.Warn("network enumeration failed", "domain", collectors.Network.String(), "error", err)
		return c
	}
	for _, in := range infos {
		c.entries = append(c.entries, &entry{
			info:    in,
			breaker: opts.NewBreaker(in.Name),
			history: opts.NewSeries(),
		})
	}
	c.log.Debug("interfaces enumerated", "domain", collectors.Network.String(), "count", len(c.entries))
	return c
}

// Factory builds a network collector on the gopsutil source.
func Factory(ctx context.Context, opts collectors.Options) collectors.Collector {
	return New(ctx, NewSource(), opts)
}

// Usage converts a throughput sample into link utilisation. It returns
// 0 when the bandwidth is unknown.
func Usage(s Sample, bandwidthBits uint64) float64 {
	if bandwidthBits == 0 {
		return 0
	}
	bits := float64(s.SentPerSec+s.RecvPerSec) * 8
	return collectors.Clamp01(bits / float64(bandwidthBits))
}

func (c *Collector) Domain() collectors.Domain { return collectors.Network }

// Refresh samples each interface. Failed or skipped interfaces keep
// their previous values and get no new history point.
func (c *Collector) Refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	for _, e := range c.entries {
		if ctx.Err() != nil {
			return
		}
		var s Sample
		ok := c.opts.SampleEntry(ctx, c.log, collectors.Network, e.info.Name, e.breaker, func(ctx context.Context) error {
			var err error
			s, err = c.src.Sample(ctx, e.info.Name)
			return err
		})
		if !ok {
			continue
		}
		usage := Usage(s, e.info.BandwidthBitsPerSec)

		c.mu.Lock()
		e.last = s
		e.usage = usage
		c.mu.Unlock()
		e.history.Append(collectors.Percent(usage))
	}
}

// Interface returns entry i.
func (c *Collector) Interface(i int) (Interface, bool) {
	if i < 0 || i >= len(c.entries) {
		return Interface{}, false
	}
	e := c.entries[i]
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Interface{
		InterfaceInfo: e.info,
		Sample:        e.last,
		Usage:         e.usage,
		History:       e.history.Snapshot(),
	}, true
}

func (c *Collector) Count() int { return len(c.entries) }

func (c *Collector) EntryName(i int) string {
	if i < 0 || i >= len(c.entries) {
		return ""
	}
	return c.entries[i].info.Name
}

func (c *Collector) History(i int) []float32 {
	if i < 0 || i >= len(c.entries) {
		return nil
	}
	return c.entries[i].history.Snapshot()
}

func (c *Collector) NextIndex(i int) int { return collectors.NextIndex(i, len(c.entries)) }
func (c *Collector) PrevIndex(i int) int { return collectors.PrevIndex(i, len(c.entries)) }

// Health reports entry i's breaker.
func (c *Collector) Health(i int) (retry.Stats, bool) {
	if i < 0 || i >= len(c.entries) {
		return retry.Stats{}, false
	}
	return collectors.BreakerStats(c.entries[i].breaker)
}

// ResetHealth closes entry i's breaker.
func (c *Collector) ResetHealth(i int) {
	if i >= 0 && i < len(c.entries) && c.entries[i].breaker != nil {
		c.entries[i].breaker.Reset()
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
