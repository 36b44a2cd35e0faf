package disk

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"gitlab.com/tinyland/lab/sysgraph/internal/rate"
)

type meters struct {
	busy, read, write rate.Meter
}

// psSource reads block device counters through gopsutil.
type psSource struct {
	meters map[string]*meters
	now    func() time.Time
}

// NewSource returns the gopsutil-backed disk source.
func NewSource() Source {
	return &psSource{meters: make(map[string]*meters), now: time.Now}
}

func (s *psSource) Disks(ctx context.Context) ([]string, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("disk: io counters: %w", err)
	}
	names := make([]string, 0, len(counters))
	for n := range counters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *psSource) Sample(ctx context.Context, name string) (Sample, error) {
	counters, err := disk.IOCountersWithContext(ctx, name)
	if err != nil {
		return Sample{}, fmt.Errorf("disk: io counters %s: %w", name, err)
	}
	st, ok := counters[name]
	if !ok {
		return Sample{}, fmt.Errorf("disk: %s: not reported", name)
	}

	m, ok := s.meters[name]
	if !ok {
		m = &meters{}
		s.meters[name] = m
	}
	now := s.now()

	var out Sample
	if f, ok := m.busy.Fraction(time.Duration(st.IoTime)*time.Millisecond, now); ok {
		out.Busy = f
	}
	if r, ok := m.read.Observe(st.ReadBytes, now); ok {
		out.ReadPerSec = uint64(r)
	}
	if w, ok := m.write.Observe(st.WriteBytes, now); ok {
		out.WritePerSec = uint64(w)
	}
	return out, nil
}
