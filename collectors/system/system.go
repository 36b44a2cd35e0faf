// Package system wires the platform collectors into a collectors.Registry
// and offers typed accessors for each domain.
package system

import (
	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/cpu"
	"gitlab.com/tinyland/lab/sysgraph/collectors/disk"
	"gitlab.com/tinyland/lab/sysgraph/collectors/gpu"
	"gitlab.com/tinyland/lab/sysgraph/collectors/memory"
	"gitlab.com/tinyland/lab/sysgraph/collectors/network"
)

// Factories returns the platform factory for every domain.
func Factories() map[collectors.Domain]collectors.Factory {
	return map[collectors.Domain]collectors.Factory{
		collectors.CPU:     cpu.Factory,
		collectors.Memory:  memory.Factory,
		collectors.GPU:     gpu.Factory,
		collectors.Network: network.Factory,
		collectors.Disk:    disk.Factory,
	}
}

// Data is the process-wide set of shared collectors. It wraps a
// collectors.Registry built from Factories.
type Data struct {
	*collectors.Registry
}

// New returns a Data backed by the platform collectors.
func New(opts collectors.Options) *Data {
	return &Data{Registry: collectors.NewRegistry(opts, Factories())}
}

// Wrap adds the typed accessors to an existing registry, typically one
// built with test factories.
func Wrap(r *collectors.Registry) *Data {
	return &Data{Registry: r}
}

// CPU returns the shared CPU collector, or nil if the registry holds a
// different implementation for the domain.
func (d *Data) CPU() *cpu.Collector {
	c, _ := d.Get(collectors.CPU).(*cpu.Collector)
	return c
}

// Memory returns the shared memory collector.
func (d *Data) Memory() *memory.Collector {
	c, _ := d.Get(collectors.Memory).(*memory.Collector)
	return c
}

// GPU returns the shared GPU collector.
func (d *Data) GPU() *gpu.Collector {
	c, _ := d.Get(collectors.GPU).(*gpu.Collector)
	return c
}

// Network returns the shared network collector.
func (d *Data) Network() *network.Collector {
	c, _ := d.Get(collectors.Network).(*network.Collector)
	return c
}

// Disk returns the shared disk collector.
func (d *Data) Disk() *disk.Collector {
	c, _ := d.Get(collectors.Disk).(*disk.Collector)
	return c
}
