// Package retry provides a per-entry circuit breaker for metric sampling.
// When one device keeps failing (a disk that was unplugged, an adapter
// whose counters vanished), the breaker "opens" so the collector skips
// that entry for increasing intervals instead of paying for a failing OS
// read and logging it on every tick.
package retry

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/tinyland/lab/sysgraph/internal/format"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; reads pass through.
	StateClosed State = iota
	// StateOpen means failures exceeded the threshold; reads are skipped.
	StateOpen
	// StateHalfOpen lets one trial read through to test for recovery.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the breaker.
type Config struct {
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// ResetTimeout is the initial wait before an open breaker lets a trial read through.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier grows ResetTimeout on each failed trial read.
	BackoffMultiplier float64
	// Logger for state transitions. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// DefaultConfig returns defaults tuned for one-second sampling.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      10 * time.Second,
		MaxResetTimeout:   5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats is a snapshot of a breaker, shown next to the entry it guards.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	CurrentTimeout   time.Duration
	ConsecutiveSkips int
}

// Summary renders the stats as a short status: "ok", "ok, 2 of 40
// reads failed", "paused 10s after 3 failures, 4 skipped" or "retrying".
func (s Stats) Summary() string {
	switch s.State {
	case StateOpen:
		return fmt.Sprintf("paused %s after %d failures, %d skipped",
			format.Interval(s.CurrentTimeout), s.ConsecutiveFails, s.ConsecutiveSkips)
	case StateHalfOpen:
		return "retrying"
	}
	if s.TotalFailures == 0 {
		return "ok"
	}
	return fmt.Sprintf("ok, %d of %d reads failed", s.TotalFailures, s.TotalFailures+s.TotalSuccesses)
}

// Breaker tracks failures of a single sampled entry.
type Breaker struct {
	name   string
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// NewBreaker returns a closed breaker for the named entry.
func NewBreaker(name string, cfg Config) *Breaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	return &Breaker{
		name:           name,
		config:         cfg,
		logger:         logger,
		now:            time.Now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Allow reports whether the entry should be sampled now. An open breaker
// whose timeout has elapsed moves to half-open and allows one trial read.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.currentTimeout {
			b.consecutiveSkips++
			return false
		}
		b.state = StateHalfOpen
		b.logger.Debug("breaker half-open, probing", "entry", b.name)
		return true
	default:
		return true
	}
}

// Record feeds the outcome of an allowed read back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if err == nil {
		if b.state != StateClosed {
			b.logger.Info("breaker closed after successful trial read", "entry", b.name)
		}
		b.state = StateClosed
		b.failures = 0
		b.consecutiveSkips = 0
		b.totalSuccesses++
		b.currentTimeout = b.config.ResetTimeout
		return
	}

	b.failures++
	b.totalFailures++
	b.lastFailure = now

	switch b.state {
	case StateHalfOpen:
		b.currentTimeout = time.Duration(float64(b.currentTimeout) * b.config.BackoffMultiplier)
		if b.config.MaxResetTimeout > 0 && b.currentTimeout > b.config.MaxResetTimeout {
			b.currentTimeout = b.config.MaxResetTimeout
		}
		b.state = StateOpen
		b.logger.Warn("breaker re-opened after failed trial read",
			"entry", b.name,
			"failures", b.failures,
			"next_timeout", b.currentTimeout,
		)
	case StateClosed:
		if b.config.MaxFailures > 0 && b.failures >= b.config.MaxFailures {
			b.state = StateOpen
			b.currentTimeout = b.config.ResetTimeout
			b.logger.Warn("breaker opened",
				"entry", b.name,
				"failures", b.failures,
				"timeout", b.currentTimeout,
			)
		}
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:            b.state,
		ConsecutiveFails: b.failures,
		TotalFailures:    b.totalFailures,
		TotalSuccesses:   b.totalSuccesses,
		CurrentTimeout:   b.currentTimeout,
		ConsecutiveSkips: b.consecutiveSkips,
	}
}

// Reset forces the breaker back to closed so the next read goes through.
// Totals are kept.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.currentTimeout = b.config.ResetTimeout
}
