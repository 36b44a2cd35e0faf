//go:build !windows

package memory

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
)

type psSource struct{}

// NewSource returns the gopsutil-backed memory source.
func NewSource() (Source, error) {
	return psSource{}, nil
}

func (psSource) Sample(ctx context.Context) (Sample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("memory: virtual memory: %w", err)
	}
	return Sample{
		Total:        vm.Total,
		Used:         vm.Used,
		Available:    vm.Available,
		Committed:    vm.CommittedAS,
		CommitLimit:  vm.CommitLimit,
		Cached:       vm.Cached,
		PagedPool:    vm.Sreclaimable,
		NonPagedPool: vm.Sunreclaim,
	}, nil
}
