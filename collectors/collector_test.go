package collectors

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
)

func TestIndexWraparound(t *testing.T) {
	tests := []struct {
		name     string
		cur      int
		count    int
		wantNext int
		wantPrev int
	}{
		{name: "no entries", cur: 0, count: 0, wantNext: 0, wantPrev: 0},
		{name: "single entry", cur: 0, count: 1, wantNext: 0, wantPrev: 0},
		{name: "last wraps to first", cur: 2, count: 3, wantNext: 0, wantPrev: 1},
		{name: "first wraps to last", cur: 0, count: 3, wantNext: 1, wantPrev: 2},
		{name: "middle", cur: 1, count: 3, wantNext: 2, wantPrev: 0},
		{name: "stale index past end", cur: 7, count: 3, wantNext: 2, wantPrev: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextIndex(tt.cur, tt.count); got != tt.wantNext {
				t.Errorf("NextIndex(%d, %d) = %d, want %d", tt.cur, tt.count, got, tt.wantNext)
			}
			if got := PrevIndex(tt.cur, tt.count); got != tt.wantPrev {
				t.Errorf("PrevIndex(%d, %d) = %d, want %d", tt.cur, tt.count, got, tt.wantPrev)
			}
		})
	}
}

func TestParseDomain(t *testing.T) {
	for _, d := range AllDomains() {
		got, err := ParseDomain(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDomain(%q) = %v, %v", d.String(), got, err)
		}
	}

	if got, err := ParseDomain("  GPU "); err != nil || got != GPU {
		t.Errorf("ParseDomain is not case/space insensitive: %v, %v", got, err)
	}

	_, err := ParseDomain("battery")
	if !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("ParseDomain(battery) error = %v, want ErrUnknownDomain", err)
	}
}

func TestDomainString(t *testing.T) {
	if got := Network.String(); got != "network" {
		t.Errorf("Network.String() = %q", got)
	}
	if got := Domain(99).String(); got != "domain(99)" {
		t.Errorf("Domain(99).String() = %q", got)
	}
	if Domain(99).Valid() || !Disk.Valid() {
		t.Error("Valid() mismatch")
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	opts := Options{}
	err := opts.Guard(context.Background(), func(context.Context) error {
		panic("counter disposed")
	})
	if err == nil {
		t.Fatal("expected error from panicking sample")
	}
}

func TestGuardAppliesTimeout(t *testing.T) {
	opts := Options{SampleTimeout: 10 * time.Millisecond}
	err := opts.Guard(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestSampleEntryHonoursBreaker(t *testing.T) {
	opts := Options{Breaker: retry.Config{MaxFailures: 1, ResetTimeout: time.Hour}}
	b := opts.NewBreaker("eth0")
	calls := 0
	fail := func(context.Context) error {
		calls++
		return errors.New("gone")
	}

	if opts.SampleEntry(context.Background(), opts.Log(), Network, "eth0", b, fail) {
		t.Error("failed sample reported ok")
	}
	if opts.SampleEntry(context.Background(), opts.Log(), Network, "eth0", b, fail) {
		t.Error("skipped sample reported ok")
	}
	if calls != 1 {
		t.Errorf("source called %d times, want 1 (breaker should skip)", calls)
	}
}

func TestSampleEntryIgnoresCancellation(t *testing.T) {
	opts := Options{Breaker: retry.Config{MaxFailures: 1, ResetTimeout: time.Hour}}
	b := opts.NewBreaker("sda")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if opts.SampleEntry(ctx, opts.Log(), Disk, "sda", b, func(ctx context.Context) error {
		return ctx.Err()
	}) {
		t.Fatal("cancelled sample reported ok")
	}

	calls := 0
	ok := opts.SampleEntry(context.Background(), opts.Log(), Disk, "sda", b, func(context.Context) error {
		calls++
		return nil
	})
	if !ok || calls != 1 {
		t.Errorf("ok = %v, calls = %d: a cancelled read must not open the breaker", ok, calls)
	}
}

func TestNewBreakerDisabled(t *testing.T) {
	if b := (Options{}).NewBreaker("x"); b != nil {
		t.Error("zero options should disable the breaker")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float32
	}{
		{0.5, 50},
		{0, 0},
		{1, 100},
		{1.7, 100},
		{-0.2, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
