//go:build windows

package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"gitlab.com/tinyland/lab/sysgraph/internal/perfcounter"
)

var counterPaths = [...]string{
	`\Memory\Committed Bytes`,
	`\Memory\Commit Limit`,
	`\Memory\Cache Bytes`,
	`\Memory\Pool Paged Bytes`,
	`\Memory\Pool Nonpaged Bytes`,
}

type pdhSource struct {
	q        *perfcounter.Query
	counters [len(counterPaths)]*perfcounter.Counter
}

// NewSource returns a memory source that combines gopsutil totals with
// the PDH commit, cache and pool counters.
func NewSource() (Source, error) {
	q, err := perfcounter.Open()
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	s := &pdhSource{q: q}
	for i, p := range counterPaths {
		c, err := q.Add(p)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("memory: %w", err), q.Close())
		}
		s.counters[i] = c
	}
	return s, nil
}

func (s *pdhSource) Sample(ctx context.Context) (Sample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("memory: virtual memory: %w", err)
	}
	if err := s.q.Collect(); err != nil {
		return Sample{}, fmt.Errorf("memory: %w", err)
	}

	var v [len(counterPaths)]uint64
	for i, c := range s.counters {
		f, err := c.Value()
		if err != nil {
			return Sample{}, fmt.Errorf("memory: %w", err)
		}
		v[i] = uint64(f)
	}

	return Sample{
		Total:        vm.Total,
		Used:         vm.Used,
		Available:    vm.Available,
		Committed:    v[0],
		CommitLimit:  v[1],
		Cached:       v[2],
		PagedPool:    v[3],
		NonPagedPool: v[4],
	}, nil
}

func (s *pdhSource) Close() error {
	return s.q.Close()
}
