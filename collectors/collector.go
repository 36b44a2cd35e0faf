// Package collectors defines the per-domain metric collector contract and
// the registry that shares one live collector per domain across every
// consumer in the process. Domain packages (cpu, memory, gpu, network,
// disk) implement Collector on top of a platform Source.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/series"
)

// ErrUnknownDomain is returned by ParseDomain for unrecognised names.
var ErrUnknownDomain = errors.New("collectors: unknown domain")

// Domain identifies a category of system metric.
type Domain int

const (
	CPU Domain = iota
	Memory
	GPU
	Network
	Disk
	domainCount // sentinel
)

var domainNames = [...]string{
	CPU:     "cpu",
	Memory:  "memory",
	GPU:     "gpu",
	Network: "network",
	Disk:    "disk",
}

// String returns the lower-case domain name.
func (d Domain) String() string {
	if d < 0 || d >= domainCount {
		return fmt.Sprintf("domain(%d)", int(d))
	}
	return domainNames[d]
}

// Valid reports whether d is one of the known domains.
func (d Domain) Valid() bool {
	return d >= 0 && d < domainCount
}

// ParseDomain maps a case-insensitive name to a Domain.
func ParseDomain(name string) (Domain, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range domainNames {
		if s == n {
			return Domain(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
}

// AllDomains returns every domain in display order.
func AllDomains() []Domain {
	out := make([]Domain, 0, domainCount)
	for d := Domain(0); d < domainCount; d++ {
		out = append(out, d)
	}
	return out
}

// Collector is implemented by every domain collector.
//
// Entries (adapters, interfaces, disks) are enumerated once when the
// collector is built. Refresh samples each entry, updates its values in
// place and appends the entry's primary value to its history. Refresh
// is safe to call from several goroutines; calls are serialized.
type Collector interface {
	// Domain returns the metric category this collector serves.
	Domain() Domain

	// Refresh samples every entry once. Per-entry failures are logged and
	// leave that entry untouched; Refresh itself never fails.
	Refresh(ctx context.Context)

	// Count returns the number of enumerated entries.
	Count() int

	// EntryName returns the display name of entry i, or "" if out of range.
	EntryName(i int) string

	// History returns a copy of entry i's rolling history, oldest first.
	History(i int) []float32

	// NextIndex and PrevIndex page through entries with wraparound.
	NextIndex(i int) int
	PrevIndex(i int) int

	// Close releases any OS handles the collector holds.
	Close() error
}

// HealthReporter is implemented by collectors whose reads are guarded
// by breakers.
type HealthReporter interface {
	// Health returns the breaker stats behind entry i. ok is false when
	// the entry has no breaker.
	Health(i int) (st retry.Stats, ok bool)

	// ResetHealth closes the breakers behind entry i so that the next
	// Refresh reads it again.
	ResetHealth(i int)
}

// Health returns the breaker stats of entry i when c reports them.
func Health(c Collector, i int) (retry.Stats, bool) {
	if h, ok := c.(HealthReporter); ok {
		return h.Health(i)
	}
	return retry.Stats{}, false
}

// ResetHealth closes entry i's breakers when c has any.
func ResetHealth(c Collector, i int) {
	if h, ok := c.(HealthReporter); ok {
		h.ResetHealth(i)
	}
}

// BreakerStats snapshots b. ok is false for a nil (disabled) breaker.
func BreakerStats(b *retry.Breaker) (retry.Stats, bool) {
	if b == nil {
		return retry.Stats{}, false
	}
	return b.Stats(), true
}

// NextIndex returns the index after cur, wrapping to 0. With no entries
// it returns 0.
func NextIndex(cur, count int) int {
	if count <= 0 {
		return 0
	}
	return ((cur+1)%count + count) % count
}

// PrevIndex returns the index before cur, wrapping to count-1. With no
// entries it returns 0.
func PrevIndex(cur, count int) int {
	if count <= 0 {
		return 0
	}
	return ((cur-1)%count + count) % count
}

// Options carries the settings shared by all collectors.
type Options struct {
	// Logger receives enumeration and sampling failures. Nil discards.
	Logger *slog.Logger

	// Capacity is the history length per entry. Zero means series.DefaultCapacity.
	Capacity int

	// SampleTimeout bounds a single entry read. Zero means no bound
	// beyond the context passed to Refresh.
	SampleTimeout time.Duration

	// Breaker configures per-entry failure back-off. A zero MaxFailures
	// disables it.
	Breaker retry.Config
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Capacity:      series.DefaultCapacity,
		SampleTimeout: 500 * time.Millisecond,
		Breaker:       retry.DefaultConfig(),
	}
}

// Log returns the configured logger or a discard logger.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// NewSeries returns an empty history sized by the options.
func (o Options) NewSeries() *series.Series {
	return series.New(o.Capacity)
}

// NewBreaker returns a per-entry breaker, or nil when disabled.
func (o Options) NewBreaker(entry string) *retry.Breaker {
	if o.Breaker.MaxFailures <= 0 {
		return nil
	}
	cfg := o.Breaker
	if cfg.Logger == nil {
		cfg.Logger = o.Logger
	}
	return retry.NewBreaker(entry, cfg)
}

// Guard runs fn with the per-entry timeout applied and turns a panic
// inside fn into an error, so one misbehaving counter cannot take down
// a whole refresh.
func (o Options) Guard(ctx context.Context, fn func(context.Context) error) (err error) {
	if o.SampleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.SampleTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collectors: sample panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// SampleEntry runs one guarded read for a named entry, consulting its
// breaker. It returns false when the read was skipped, cancelled or
// failed, in which case the caller must leave the entry untouched. A
// cancelled read is not counted against the breaker.
func (o Options) SampleEntry(ctx context.Context, log *slog.Logger, d Domain, entry string, b *retry.Breaker, fn func(context.Context) error) bool {
	if b != nil && !b.Allow() {
		return false
	}
	err := o.Guard(ctx, fn)
	if errors.Is(err, context.Canceled) {
		// The caller gave up; the entry itself did not fail.
		log.Debug("sample cancelled", "domain", d.String(), "entry", entry)
		return false
	}
	if b != nil {
		b.Record(err)
	}
	if err != nil {
		log.Warn("sample failed", "domain", d.String(), "entry", entry, "error", err)
		return false
	}
	return true
}

// Percent converts a fraction in [0,1] to the 0-100 scale stored in
// histories, clamping out-of-range input.
func Percent(fraction float64) float32 {
	return float32(Clamp01(fraction) * 100)
}

// Clamp01 clamps v to [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
