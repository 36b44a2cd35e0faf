// Package scheduler drives a collector on a fixed interval and notifies a
// subscriber after every refresh.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = time.Second

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger for recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCollector makes the scheduler drive c instead of the registry's
// shared collector. The scheduler owns c and closes it in Close.
func WithCollector(c collectors.Collector) Option {
	return func(s *Scheduler) {
		s.collector = c
		s.owned = c != nil
	}
}

// Scheduler refreshes one collector per tick and then calls onUpdated
// with it. Panics from either are recovered and logged; the loop keeps
// running.
type Scheduler struct {
	domain    collectors.Domain
	collector collectors.Collector
	owned     bool
	onUpdated func(collectors.Collector)
	interval  time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks atomic.Uint64
}

// New creates a stopped scheduler for domain d. Unless WithCollector is
// given, the collector is the registry's shared instance for d. A nil
// onUpdated is allowed.
func New(reg *collectors.Registry, d collectors.Domain, onUpdated func(collectors.Collector), opts ...Option) *Scheduler {
	s := &Scheduler{
		domain:    d,
		onUpdated: onUpdated,
		interval:  DefaultInterval,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.collector == nil {
		if reg != nil {
			s.collector = reg.Get(d)
		} else {
			s.collector = collectors.Empty(d)
		}
	}
	return s
}

// Collector returns the collector being driven.
func (s *Scheduler) Collector() collectors.Collector {
	return s.collector
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins ticking. The first tick runs immediately. Calling Start on
// a running scheduler does nothing. Cancelling ctx stops the loop as Stop
// would, except that nothing waits for it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		select {
		case <-s.done:
			// The parent context ended the previous run.
			s.cancel()
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.run(ctx, done)
}

// Stop ends the loop and waits for an in-flight tick to finish. The
// refresh of that tick completes; its callback is skipped. No callback
// runs after Stop returns. It must not be called from onUpdated.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the scheduler and closes the collector if it was supplied
// with WithCollector.
func (s *Scheduler) Close() error {
	s.Stop()
	if s.owned {
		if err := s.collector.Close(); err != nil {
			return fmt.Errorf("scheduler: close %s collector: %w", s.domain, err)
		}
	}
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Ticks returns the number of completed ticks.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick refreshes on a context Stop cannot cancel, so a refresh that has
// started always reaches every entry. Only the per-entry timeout bounds
// it. ctx decides whether the callback still runs.
func (s *Scheduler) tick(ctx context.Context) {
	s.guard("refresh", func() { s.collector.Refresh(context.WithoutCancel(ctx)) })
	if ctx.Err() == nil && s.onUpdated != nil {
		s.guard("on updated", func() { s.onUpdated(s.collector) })
	}
	s.ticks.Add(1)
}

func (s *Scheduler) guard(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler tick panicked",
				"domain", s.domain.String(),
				"stage", stage,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
