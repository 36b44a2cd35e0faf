package retry

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker("sda", cfg)
	b.now = clk.now
	return b, clk
}

var errRead = errors.New("read failed")

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxFailures != 3 {
		t.Errorf("MaxFailures = %d, want 3", cfg.MaxFailures)
	}
	if cfg.ResetTimeout <= 0 || cfg.MaxResetTimeout < cfg.ResetTimeout {
		t.Errorf("bad timeouts: reset=%v max=%v", cfg.ResetTimeout, cfg.MaxResetTimeout)
	}
	if cfg.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", cfg.BackoffMultiplier)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(42), "unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig())

	for i := 0; i < 2; i++ {
		if !b.Allow() {
			t.Fatalf("Allow() = false before threshold (i=%d)", i)
		}
		b.Record(errRead)
	}
	if b.State() != StateClosed {
		t.Fatalf("state after 2 failures = %s, want closed", b.State())
	}

	b.Allow()
	b.Record(errRead)
	if b.State() != StateOpen {
		t.Fatalf("state after 3 failures = %s, want open", b.State())
	}
	if b.Allow() {
		t.Error("open breaker allowed a read before timeout")
	}
	if got := b.Stats().ConsecutiveSkips; got != 1 {
		t.Errorf("ConsecutiveSkips = %d, want 1", got)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(DefaultConfig())

	b.Record(errRead)
	b.Record(errRead)
	b.Record(nil)
	b.Record(errRead)

	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed", b.State())
	}
	st := b.Stats()
	if st.ConsecutiveFails != 1 || st.TotalFailures != 3 || st.TotalSuccesses != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	cfg := DefaultConfig()
	b, clk := newTestBreaker(cfg)

	for i := 0; i < cfg.MaxFailures; i++ {
		b.Record(errRead)
	}

	clk.advance(cfg.ResetTimeout)
	if !b.Allow() {
		t.Fatal("breaker did not allow a trial read after timeout")
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half_open", b.State())
	}

	// Failed trial read doubles the timeout.
	b.Record(errRead)
	if b.State() != StateOpen {
		t.Fatalf("state after failed trial = %s, want open", b.State())
	}
	if got, want := b.Stats().CurrentTimeout, 2*cfg.ResetTimeout; got != want {
		t.Errorf("CurrentTimeout = %v, want %v", got, want)
	}

	clk.advance(cfg.ResetTimeout)
	if b.Allow() {
		t.Error("allowed a trial read before backed-off timeout elapsed")
	}

	clk.advance(cfg.ResetTimeout)
	if !b.Allow() {
		t.Fatal("no trial read after backed-off timeout")
	}
	b.Record(nil)
	if b.State() != StateClosed {
		t.Errorf("state after good trial = %s, want closed", b.State())
	}
	if got := b.Stats().CurrentTimeout; got != cfg.ResetTimeout {
		t.Errorf("timeout not restored: %v", got)
	}
}

func TestBreakerBackoffCapped(t *testing.T) {
	cfg := Config{
		MaxFailures:       1,
		ResetTimeout:      time.Second,
		MaxResetTimeout:   3 * time.Second,
		BackoffMultiplier: 10,
	}
	b, clk := newTestBreaker(cfg)

	b.Record(errRead)
	for i := 0; i < 3; i++ {
		clk.advance(time.Hour)
		b.Allow()
		b.Record(errRead)
	}
	if got := b.Stats().CurrentTimeout; got != cfg.MaxResetTimeout {
		t.Errorf("CurrentTimeout = %v, want cap %v", got, cfg.MaxResetTimeout)
	}
}

func TestBreakerReset(t *testing.T) {
	b, _ := newTestBreaker(Config{MaxFailures: 1, ResetTimeout: time.Minute})
	b.Record(errRead)
	if b.State() != StateOpen {
		t.Fatalf("state = %s, want open", b.State())
	}

	b.Reset()
	if b.State() != StateClosed || !b.Allow() {
		t.Error("Reset did not close the breaker")
	}
}

func TestStatsSummary(t *testing.T) {
	tests := []struct {
		name string
		in   Stats
		want string
	}{
		{"healthy", Stats{TotalSuccesses: 40}, "ok"},
		{"recovered", Stats{TotalFailures: 2, TotalSuccesses: 38}, "ok, 2 of 40 reads failed"},
		{"open", Stats{State: StateOpen, ConsecutiveFails: 3, CurrentTimeout: 10 * time.Second, ConsecutiveSkips: 4}, "paused 10s after 3 failures, 4 skipped"},
		{"probing", Stats{State: StateHalfOpen}, "retrying"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}
