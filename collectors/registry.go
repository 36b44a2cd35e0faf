package collectors

import (
	"context"
	"errors"
	"sync"
)

// Factory builds the collector for one domain. It runs at most once per
// Registry and performs the domain's enumeration.
type Factory func(ctx context.Context, opts Options) Collector

// Registry holds one shared collector per domain so that every consumer
// watching the same domain reads the same live counters. Collectors are
// built lazily on first Get and live until Close.
//
// A Registry is an explicit object handed to its consumers; there is no
// package-level instance.
type Registry struct {
	opts      Options
	factories map[Domain]Factory

	mu    sync.Mutex
	slots map[Domain]*slot
}

type slot struct {
	once sync.Once
	c    Collector
}

// NewRegistry creates a registry that builds collectors with the given
// factories. Domains without a factory resolve to an empty collector.
func NewRegistry(opts Options, factories map[Domain]Factory) *Registry {
	f := make(map[Domain]Factory, len(factories))
	for d, fn := range factories {
		f[d] = fn
	}
	return &Registry{
		opts:      opts,
		factories: f,
		slots:     make(map[Domain]*slot),
	}
}

// Options returns the options collectors are built with.
func (r *Registry) Options() Options {
	return r.opts
}

// Get returns the shared collector for d, building it on first use.
// Concurrent first calls build exactly one instance. Get never fails: a
// domain whose enumeration found nothing yields a collector with zero
// entries.
func (r *Registry) Get(d Domain) Collector {
	r.mu.Lock()
	s, ok := r.slots[d]
	if !ok {
		s = &slot{}
		r.slots[d] = s
	}
	r.mu.Unlock()

	s.once.Do(func() {
		if fn, ok := r.factories[d]; ok && fn != nil {
			s.c = fn(context.Background(), r.opts)
		}
		if s.c == nil {
			r.opts.Log().Warn("no collector for domain", "domain", d.String())
			s.c = Empty(d)
		}
	})
	return s.c
}

// Built reports which domains have been constructed so far.
func (r *Registry) Built() []Domain {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Domain
	for _, d := range AllDomains() {
		if s, ok := r.slots[d]; ok && s.c != nil {
			out = append(out, d)
		}
	}
	return out
}

// Close releases every collector built so far. The registry normally
// lives for the whole process; Close exists for orderly shutdown and
// tests.
func (r *Registry) Close() error {
	r.mu.Lock()
	slots := r.slots
	r.slots = make(map[Domain]*slot)
	r.mu.Unlock()

	var errs []error
	for _, s := range slots {
		// Wait for an in-progress build before closing.
		s.once.Do(func() {})
		if s.c != nil {
			if err := s.c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Empty returns a collector for d with no entries.
func Empty(d Domain) Collector {
	return emptyCollector{domain: d}
}

type emptyCollector struct {
	domain Domain
}

func (e emptyCollector) Domain() Domain          { return e.domain }
func (e emptyCollector) Refresh(context.Context) {}
func (e emptyCollector) Count() int              { return 0 }
func (e emptyCollector) EntryName(int) string    { return "" }
func (e emptyCollector) History(int) []float32   { return nil }
func (e emptyCollector) NextIndex(i int) int     { return NextIndex(i, 0) }
func (e emptyCollector) PrevIndex(i int) int     { return PrevIndex(i, 0) }
func (e emptyCollector) Close() error            { return nil }
