// Package cpu samples total processor utilisation, the current clock
// speed and the busiest processes.
package cpu

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

const (
	entryName = "CPU"

	// TopN is how many processes Stats reports.
	TopN = 3
)

// Process is one entry in the top-processes list.
type Process struct {
	PID  int32
	Name string

	// Usage is the share of total machine capacity in [0,1].
	Usage float64
}

// Source reads the platform processor counters.
type Source interface {
	// Usage returns total utilisation in [0,1] since the previous call.
	Usage(ctx context.Context) (float64, error)

	// SpeedMHz returns the current processor frequency.
	SpeedMHz(ctx context.Context) (float64, error)

	// TopProcesses returns at most n processes ordered by usage.
	TopProcesses(ctx context.Context, n int) ([]Process, error)
}

// Stats is a consistent copy of the collector state.
type Stats struct {
	Usage     float64
	SpeedMHz  float64
	Processes []Process
	History   []float32
}

// Collector tracks processor load as a single entry.
type Collector struct {
	opts    collectors.Options
	log     *slog.Logger
	src     Source
	breaker *retry.Breaker

	refreshMu sync.Mutex
	closeOnce sync.Once

	mu      sync.RWMutex
	usage   float64
	speed   float64
	procs   []Process
	history *series.Series
}

var (
	_ collectors.Collector      = (*Collector)(nil)
	_ collectors.HealthReporter = (*Collector)(nil)
)

// New creates a CPU collector reading from src.
func New(src Source, opts collectors.Options) *Collector {
	return &Collector{
		opts:    opts,
		log:     opts.Log(),
		src:     src,
		breaker: opts.NewBreaker(entryName),
		history: opts.NewSeries(),
	}
}

// Factory builds a CPU collector on the gopsutil source.
func Factory(ctx context.Context, opts collectors.Options) collectors.Collector {
	return New(NewSource(ctx), opts)
}

func (c *Collector) Domain() collectors.Domain { return collectors.CPU }

// Refresh samples utilisation, speed and the top processes. Only the
// utilisation feeds the history; speed and process failures keep the
// previous values and are logged at debug level.
func (c *Collector) Refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var usage float64
	ok := c.opts.SampleEntry(ctx, c.log, collectors.CPU, entryName, c.breaker, func(ctx context.Context) error {
		var err error
		usage, err = c.src.Usage(ctx)
		return err
	})
	if !ok {
		return
	}
	usage = collectors.Clamp01(usage)

	var speed float64
	speedErr := c.opts.Guard(ctx, func(ctx context.Context) error {
		var err error
		speed, err = c.src.SpeedMHz(ctx)
		return err
	})
	if speedErr != nil {
		c.log.Debug("cpu speed unavailable", "error", speedErr)
	}

	var procs []Process
	procErr := c.opts.Guard(ctx, func(ctx context.Context) error {
		var err error
		procs, err = c.src.TopProcesses(ctx, TopN)
		return err
	})
	if procErr != nil {
		c.log.Debug("top processes unavailable", "error", procErr)
	}

	c.mu.Lock()
	c.usage = usage
	if speedErr == nil {
		c.speed = speed
	}
	if procErr == nil {
		c.procs = Top(procs, TopN)
	}
	c.mu.Unlock()

	c.history.Append(collectors.Percent(usage))
}

// Stats returns the latest reading together with a copy of the history.
func (c *Collector) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Usage:     c.usage,
		SpeedMHz:  c.speed,
		Processes: append([]Process(nil), c.procs...),
		History:   c.history.Snapshot(),
	}
}

// Count is always 1.
func (c *Collector) Count() int { return 1 }

func (c *Collector) EntryName(i int) string {
	if i != 0 {
		return ""
	}
	return entryName
}

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

// Top returns the n busiest processes, highest usage first. Ties are
// broken by ascending PID so the order is stable between ticks. The
// input slice is not modified.
func Top(ps []Process, n int) []Process {
	if n <= 0 || len(ps) == 0 {
		return nil
	}
	out := append([]Process(nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Usage != out[j].Usage {
			return out[i].Usage > out[j].Usage
		}
		return out[i].PID < out[j].PID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
