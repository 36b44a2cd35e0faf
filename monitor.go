package main

import (
	"context"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/artifact"
	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/system"
	"gitlab.com/tinyland/lab/sysgraph/scheduler"
)

// monitor owns one scheduler per displayed domain. After each tick it
// writes thumbnails (when a store is set) and notifies the dashboard.
type monitor struct {
	data       *system.Data
	domains    []collectors.Domain
	schedulers []*scheduler.Scheduler
	store      *artifact.Store
	logger     *slog.Logger

	// updates carries the domain of every finished tick. Sends never
	// block; a slow reader misses redraws, not samples.
	updates chan collectors.Domain
}

func newMonitor(data *system.Data, domains []collectors.Domain, interval time.Duration, store *artifact.Store, logger *slog.Logger) *monitor {
	m := &monitor{
		data:    data,
		domains: domains,
		store:   store,
		logger:  logger,
		updates: make(chan collectors.Domain, 2*len(domains)),
	}
	for _, d := range domains {
		m.schedulers = append(m.schedulers, scheduler.New(data.Registry, d, m.onUpdated,
			scheduler.WithInterval(interval),
			scheduler.WithLogger(logger),
		))
	}
	return m
}

func (m *monitor) onUpdated(c collectors.Collector) {
	if m.store != nil {
		// Errors are logged per entry by the store.
		_ = m.store.WriteCollector(c)
	}
	select {
	case m.updates <- c.Domain():
	default:
	}
}

func (m *monitor) start(ctx context.Context) {
	for _, s := range m.schedulers {
		s.Start(ctx)
	}
	m.logger.Info("polling started", "domains", len(m.schedulers))
}

func (m *monitor) stop() {
	for _, s := range m.schedulers {
		s.Stop()
	}
}

// waitTicks blocks until every scheduler completed n ticks or ctx ends.
func (m *monitor) waitTicks(ctx context.Context, n uint64) error {
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	for {
		done := true
		for _, s := range m.schedulers {
			if s.Ticks() < n {
				done = false
				break
			}
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
	}
}

// openStore prepares the thumbnail directory. Thumbnails from an earlier
// run are removed so that devices gone since then do not linger.
func openStore(dir string, logger *slog.Logger) (*artifact.Store, error) {
	store, err := artifact.NewStore(dir, logger)
	if err != nil {
		return nil, err
	}
	stale := len(store.Names())
	if err := store.Clear(); err != nil {
		return nil, err
	}
	logger.Info("writing thumbnails", "dir", store.Dir(), "cleared", stale)
	return store, nil
}
