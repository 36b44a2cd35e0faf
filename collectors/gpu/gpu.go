// Package gpu samples per-adapter 3D engine utilisation and temperature.
package gpu

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/internal/format"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// AdapterInfo describes an adapter found at enumeration.
type AdapterInfo struct {
	Name      string
	PhysIndex int
}

// Sensor is a named temperature reading.
type Sensor struct {
	Name    string
	Celsius float64
}

// Source enumerates adapters and reads engine and sensor counters.
type Source interface {
	Adapters(ctx context.Context) ([]AdapterInfo, error)
	Engines(ctx context.Context) ([]EngineSample, error)
	Sensors(ctx context.Context) ([]Sensor, error)
}

// Temperature is an optional reading in degrees Celsius.
type Temperature struct {
	Celsius float64
	Known   bool
}

// String renders the temperature for display, or "--" when unknown.
func (t Temperature) String() string {
	return format.Celsius(t.Celsius, t.Known)
}

// MatchTemperature returns the first sensor whose name equals the
// adapter name.
func MatchTemperature(sensors []Sensor, adapter string) Temperature {
	for _, s := range sensors {
		if s.Name == adapter {
			return Temperature{Celsius: s.Celsius, Known: true}
		}
	}
	return Temperature{}
}

// Adapter is a consistent copy of one entry.
type Adapter struct {
	Name        string
	PhysIndex   int
	Usage       float64
	Temperature Temperature
	History     []float32
}

type entry struct {
	info    AdapterInfo
	history *series.Series
	usage   float64
	temp    Temperature
}

// Collector tracks every adapter found at construction.
type Collector struct {
	opts collectors.Options
	log  *slog.Logger
	src  Source

	// One read covers every adapter, so the breakers guard the two
	// shared reads rather than individual entries.
	engineBreaker *retry.Breaker
	sensorBreaker *retry.Breaker

	refreshMu sync.Mutex
	closeOnce sync.Once

	mu      sync.RWMutex
	entries []*entry
}

var (
	_ collectors.Collector      = (*Collector)(nil)
	_ collectors.HealthReporter = (*Collector)(nil)
)

// New enumerates adapters from src. If enumeration fails the collector
// is valid but has no entries.
func New(ctx context.Context, src Source, opts collectors.Options) *Collector {
	c := &Collector{
		opts:          opts,
		log:           opts.Log(),
		src:           src,
		engineBreaker: opts.NewBreaker("engines"),
		sensorBreaker: opts.NewBreaker("sensors"),
	}

	infos, err := src.Adapters(ctx)
	if err != nil {
		c.log.Warn("gpu enumeration failed", "domain", collectors.GPU.String(), "error", err)
		return c
	}
	for _, in := range infos {
		c.entries = append(c.entries, &entry{info: in, history: opts.NewSeries()})
	}
	c.log.Debug("adapters enumerated", "domain", collectors.GPU.String(), "count", len(c.entries))
	return c
}

// Factory builds a GPU collector on the platform source. Platforms
// without a GPU source get an empty collector.
func Factory(ctx context.Context, opts collectors.Options) collectors.Collector {
	src, err := NewSource()
	if err != nil {
		opts.Log().Warn("gpu source unavailable", "domain", collectors.GPU.String(), "error", err)
		return collectors.Empty(collectors.GPU)
	}
	return New(ctx, src, opts)
}

func (c *Collector) Domain() collectors.Domain { return collectors.GPU }

// Refresh reads the engine and sensor counters once and updates every
// adapter from them. When the engine read fails no adapter changes; a
// failed sensor read only leaves temperatures as they were.
func (c *Collector) Refresh(ctx context.Context) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if len(c.entries) == 0 {
		return
	}

	var engines []EngineSample
	if !c.opts.SampleEntry(ctx, c.log, collectors.GPU, "engines", c.engineBreaker, func(ctx context.Context) error {
		var err error
		engines, err = c.src.Engines(ctx)
		return err
	}) {
		return
	}

	var sensors []Sensor
	sensorsOK := c.opts.SampleEntry(ctx, c.log, collectors.GPU, "sensors", c.sensorBreaker, func(ctx context.Context) error {
		var err error
		sensors, err = c.src.Sensors(ctx)
		return err
	})

	for _, e := range c.entries {
		usage := AdapterUsage(engines, e.info.PhysIndex)

		c.mu.Lock()
		e.usage = usage
		if sensorsOK {
			e.temp = MatchTemperature(sensors, e.info.Name)
		}
		c.mu.Unlock()
		e.history.Append(collectors.Percent(usage))
	}
}

// Adapter returns entry i.
func (c *Collector) Adapter(i int) (Adapter, bool) {
	if i < 0 || i >= len(c.entries) {
		return Adapter{}, false
	}
	e := c.entries[i]
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Adapter{
		Name:        e.info.Name,
		PhysIndex:   e.info.PhysIndex,
		Usage:       e.usage,
		Temperature: e.temp,
		History:     e.history.Snapshot(),
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

// Health reports the shared engine breaker for every adapter, or the
// sensor breaker while only temperatures are failing.
func (c *Collector) Health(i int) (retry.Stats, bool) {
	if i < 0 || i >= len(c.entries) {
		return retry.Stats{}, false
	}
	if c.engineBreaker != nil && c.sensorBreaker != nil &&
		c.engineBreaker.State() == retry.StateClosed && c.sensorBreaker.State() != retry.StateClosed {
		return c.sensorBreaker.Stats(), true
	}
	if c.engineBreaker != nil {
		return c.engineBreaker.Stats(), true
	}
	return collectors.BreakerStats(c.sensorBreaker)
}

// ResetHealth closes both shared breakers; they cover every adapter.
func (c *Collector) ResetHealth(i int) {
	if i < 0 || i >= len(c.entries) {
		return
	}
	for _, b := range []*retry.Breaker{c.engineBreaker, c.sensorBreaker} {
		if b != nil {
			b.Reset()
		}
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
