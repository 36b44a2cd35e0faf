package cpu

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/internal/rate"
)

// psSource reads processor counters through gopsutil.
type psSource struct {
	logical int

	// Per-process CPU time meters, keyed by PID. Vanished PIDs are pruned
	// on every scan.
	meters map[int32]*rate.Meter
	now    func() time.Time
}

// NewSource returns the gopsutil-backed CPU source.
func NewSource(ctx context.Context) Source {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return &psSource{
		logical: n,
		meters:  make(map[int32]*rate.Meter),
		now:     time.Now,
	}
}

func (s *psSource) Usage(ctx context.Context) (float64, error) {
	// Interval 0 compares against the previous call.
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu: percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("cpu: percent: no data")
	}
	return pct[0] / 100, nil
}

func (s *psSource) SpeedMHz(ctx context.Context) (float64, error) {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("cpu: info: %w", err)
	}
	if len(infos) == 0 {
		return 0, fmt.Errorf("cpu: info: no processors")
	}
	var sum float64
	for _, in := range infos {
		sum += in.Mhz
	}
	return sum / float64(len(infos)), nil
}

func (s *psSource) TopProcesses(ctx context.Context, n int) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu: processes: %w", err)
	}

	now := s.now()
	seen := make(map[int32]struct{}, len(procs))
	out := make([]Process, 0, len(procs))

	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen[p.Pid] = struct{}{}

		t, err := p.TimesWithContext(ctx)
		if err != nil {
			continue
		}
		busy := time.Duration((t.User + t.System) * float64(time.Second))

		m, ok := s.meters[p.Pid]
		if !ok {
			m = &rate.Meter{}
			s.meters[p.Pid] = m
		}
		nsPerSec, ok := m.Observe(uint64(busy), now)
		if !ok || nsPerSec == 0 {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		out = append(out, Process{
			PID:   p.Pid,
			Name:  name,
			Usage: collectors.Clamp01(nsPerSec / float64(time.Second) / float64(s.logical)),
		})
	}

	for pid := range s.meters {
		if _, ok := seen[pid]; !ok {
			delete(s.meters, pid)
		}
	}

	return Top(out, n), nil
}
