// Package disk samples per-disk busy time and transfer rates.
package disk

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// Sample is one reading for a disk.
type Sample struct {
	// Busy is the share of the last interval the disk spent servicing I/O.
	Busy        float64
	ReadPerSec  uint64
	WritePerSec uint64
}

// Source enumerates disks and reads their counters. Rates are relative to
// the previous Sample for the same disk; the first call reports zero.
type Source interface {
	Disks(ctx context.Context) ([]string, error)
	Sample(ctx context.Context, name string) (Sample, error)
}

// Disk is a consistent copy of one entry.
type Disk struct {
	Name string
	Sample
	History []float32
}

type entry struct {
	name    string
	breaker *retry.Breaker
	history *series.Series
	last    Sample
}

// Collector tracks every physical disk found at construction.
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

// New enumerates the disks reported by src. If enumeration fails the
// collector is valid but has no entries.
func New(ctx context.Context, src Source, opts collectors.Options) *Collector {
	c := &Collector{opts: opts, log: opts.Log(), src: src}

	names, err := src.Disks(ctx)
	if err != nil {
		c.log.Warn("disk enumeration failed", "domain", collectors.Disk.String(), "error", err)
		return c
	}
	for _, n := range names {
		if !Include(n) {
			continue
		}
		c.entries = append(c.entries, &entry{
			name:    n,
			breaker: opts.NewBreaker(n),
			history: opts.NewSeries(),
		})
	}
	c.log.Debug("disks enumerated", "domain", collectors.Disk.String(), "count", len(c.entries))
	return c
}

// Factory builds a disk collector on the gopsutil source.
func Factory(ctx context.Context, opts collectors.Options) collectors.Collector {
	return New(ctx, NewSource(), opts)
}

var partitionRe = regexp.MustCompile(`^((s|h|v|xv)d[a-z]+\d+|(nvme\d+n\d+|mmcblk\d+)p\d+)$`)

// Include reports whether a device name is a physical disk worth
// charting. Aggregates, loop and RAM devices, and partitions are left out.
func Include(name string) bool {
	if name == "" || name == "_Total" {
		return false
	}
	for _, p := range []string{"loop", "ram", "zram"} {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return !partitionRe.MatchString(name)
}

func (c *Collector) Domain() collectors.Domain { return collectors.Disk }

// Refresh samples each disk in turn. A disk whose read fails or whose
// breaker is open keeps its previous values and gets no new history
// point; the remaining disks are unaffected.
func (c *Collector) Refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	for _, e := range c.entries {
		if ctx.Err() != nil {
			return
		}
		var s Sample
		ok := c.opts.SampleEntry(ctx, c.log, collectors.Disk, e.name, e.breaker, func(ctx context.Context) error {
			var err error
			s, err = c.src.Sample(ctx, e.name)
			return err
		})
		if !ok {
			continue
		}
		s.Busy = collectors.Clamp01(s.Busy)

		c.mu.Lock()
		e.last = s
		c.mu.Unlock()
		e.history.Append(collectors.Percent(s.Busy))
	}
}

// Disk returns entry i.
func (c *Collector) Disk(i int) (Disk, bool) {
	if i < 0 || i >= len(c.entries) {
		return Disk{}, false
	}
	e := c.entries[i]
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Disk{Name: e.name, Sample: e.last, History: e.history.Snapshot()}, true
}

func (c *Collector) Count() int { return len(c.entries) }

func (c *Collector) EntryName(i int) string {
	if i < 0 || i >= len(c.entries) {
		return ""
	}
	return c.entries[i].name
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
