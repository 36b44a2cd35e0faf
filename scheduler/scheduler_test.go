package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

type countingCollector struct {
	refreshes atomic.Int32
	closes    atomic.Int32
	panicOn   int32
}

func (c *countingCollector) Domain() collectors.Domain { return collectors.CPU }
func (c *countingCollector) Count() int                { return 1 }
func (c *countingCollector) EntryName(int) string      { return "CPU" }
func (c *countingCollector) History(int) []float32     { return nil }
func (c *countingCollector) NextIndex(int) int         { return 0 }
func (c *countingCollector) PrevIndex(int) int         { return 0 }

func (c *countingCollector) Refresh(context.Context) {
	n := c.refreshes.Add(1)
	if c.panicOn > 0 && n == c.panicOn {
		panic("refresh exploded")
	}
}

func (c *countingCollector) Close() error {
	c.closes.Add(1)
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFirstTickImmediate(t *testing.T) {
	c := &countingCollector{}
	updated := make(chan collectors.Collector, 1)
	s := New(nil, collectors.CPU, func(got collectors.Collector) { updated <- got },
		WithCollector(c), WithInterval(time.Hour))

	s.Start(context.Background())
	defer s.Stop()

	select {
	case got := <-updated:
		if got != c {
			t.Error("callback received a different collector")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first tick did not run immediately")
	}
	if n := c.refreshes.Load(); n != 1 {
		t.Errorf("refreshes = %d, want 1", n)
	}
}

func TestStartIdempotent(t *testing.T) {
	c := &countingCollector{}
	s := New(nil, collectors.CPU, nil, WithCollector(c), WithInterval(time.Hour))

	s.Start(context.Background())
	s.Start(context.Background())
	waitFor(t, func() bool { return s.Ticks() >= 1 })
	s.Stop()

	if n := c.refreshes.Load(); n != 1 {
		t.Errorf("refreshes = %d, want 1 with a single loop", n)
	}
}

func TestStopHaltsCallbacks(t *testing.T) {
	c := &countingCollector{}
	var calls atomic.Int32
	s := New(nil, collectors.CPU, func(collectors.Collector) { calls.Add(1) },
		WithCollector(c), WithInterval(2*time.Millisecond))

	s.Start(context.Background())
	waitFor(t, func() bool { return calls.Load() >= 3 })
	s.Stop()

	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("callbacks after Stop: %d -> %d", after, got)
	}

	// Stop on a stopped scheduler is a no-op.
	s.Stop()
}

func TestPanicsAreRecovered(t *testing.T) {
	c := &countingCollector{panicOn: 1}
	var calls atomic.Int32
	s := New(nil, collectors.CPU, func(collectors.Collector) {
		if calls.Add(1) == 1 {
			panic("callback exploded")
		}
	}, WithCollector(c), WithInterval(2*time.Millisecond))

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return calls.Load() >= 3 })
	if !s.Running() {
		t.Error("loop stopped after a panic")
	}
}

func TestRestartAfterStop(t *testing.T) {
	c := &countingCollector{}
	s := New(nil, collectors.CPU, nil, WithCollector(c), WithInterval(time.Hour))

	s.Start(context.Background())
	waitFor(t, func() bool { return s.Ticks() == 1 })
	s.Stop()

	s.Start(context.Background())
	waitFor(t, func() bool { return s.Ticks() == 2 })
	s.Stop()
}

func TestParentContextCancel(t *testing.T) {
	c := &countingCollector{}
	s := New(nil, collectors.CPU, nil, WithCollector(c), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, func() bool { return s.Ticks() == 1 })
	cancel()
	waitFor(t, func() bool { return !s.Running() })

	s.Start(context.Background())
	waitFor(t, func() bool { return s.Ticks() == 2 })
	s.Stop()
}

func TestCloseOwnership(t *testing.T) {
	owned := &countingCollector{}
	s := New(nil, collectors.CPU, nil, WithCollector(owned))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if owned.closes.Load() != 1 {
		t.Errorf("owned collector closed %d times, want 1", owned.closes.Load())
	}

	shared := &countingCollector{}
	reg := collectors.NewRegistry(collectors.Options{}, map[collectors.Domain]collectors.Factory{
		collectors.CPU: func(context.Context, collectors.Options) collectors.Collector { return shared },
	})
	s = New(reg, collectors.CPU, nil)
	if s.Collector() != shared {
		t.Fatal("scheduler did not use the registry's collector")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if shared.closes.Load() != 0 {
		t.Error("Close closed a registry-owned collector")
	}
}

func TestDefaults(t *testing.T) {
	s := New(nil, collectors.Disk, nil, WithInterval(-time.Second))
	if s.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", s.Interval(), DefaultInterval)
	}
	if s.Collector() == nil || s.Collector().Count() != 0 {
		t.Error("scheduler without registry should drive an empty collector")
	}
}

type slowCollector struct {
	countingCollector
	started chan struct{}
	release chan struct{}
	err     atomic.Value
}

func (c *slowCollector) Refresh(ctx context.Context) {
	c.refreshes.Add(1)
	c.started <- struct{}{}
	<-c.release
	c.err.Store(fmt.Sprint(ctx.Err()))
}

func TestStopLetsInFlightRefreshFinish(t *testing.T) {
	c := &slowCollector{started: make(chan struct{}, 1), release: make(chan struct{})}
	var callbacks atomic.Int32
	s := New(nil, collectors.CPU, func(collectors.Collector) { callbacks.Add(1) },
		WithCollector(c), WithInterval(time.Hour))

	s.Start(context.Background())
	<-c.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	waitFor(t, func() bool { return !s.Running() })
	time.Sleep(10 * time.Millisecond)
	close(c.release)
	<-stopped

	if got := c.err.Load(); got != "<nil>" {
		t.Errorf("refresh saw context error %v after Stop, want none", got)
	}
	if n := callbacks.Load(); n != 0 {
		t.Errorf("callbacks = %d, want 0 for a tick stopped mid-refresh", n)
	}
	if n := c.refreshes.Load(); n != 1 {
		t.Errorf("refreshes = %d, want 1", n)
	}
}
