package network

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"gitlab.com/tinyland/lab/sysgraph/internal/rate"
)

type meters struct {
	sent, recv rate.Meter
}

// psSource reads interface counters through gopsutil.
type psSource struct {
	meters map[string]*meters
	now    func() time.Time

	// linkSpeed returns the link speed in bits per second, 0 if unknown.
	linkSpeed func(name string) uint64
}

// NewSource returns the gopsutil-backed network source.
func NewSource() Source {
	return &psSource{
		meters:    make(map[string]*meters),
		now:       time.Now,
		linkSpeed: linkSpeed,
	}
}

// Interfaces lists interfaces that are up and not loopback.
func (s *psSource) Interfaces(ctx context.Context) ([]InterfaceInfo, error) {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("network: interfaces: %w", err)
	}
	var out []InterfaceInfo
	for _, in := range ifaces {
		if !usable(in.Flags) {
			continue
		}
		out = append(out, InterfaceInfo{
			Name:                in.Name,
			BandwidthBitsPerSec: s.linkSpeed(in.Name),
		})
	}
	return out, nil
}

func usable(flags []string) bool {
	up := false
	for _, f := range flags {
		switch f {
		case "loopback":
			return false
		case "up":
			up = true
		}
	}
	return up
}

func (s *psSource) Sample(ctx context.Context, name string) (Sample, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return Sample{}, fmt.Errorf("network: io counters: %w", err)
	}
	for _, st := range counters {
		if st.Name != name {
			continue
		}
		m, ok := s.meters[name]
		if !ok {
			m = &meters{}
			s.meters[name] = m
		}
		now := s.now()

		var out Sample
		if v, ok := m.sent.Observe(st.BytesSent, now); ok {
			out.SentPerSec = uint64(v)
		}
		if v, ok := m.recv.Observe(st.BytesRecv, now); ok {
			out.RecvPerSec = uint64(v)
		}
		return out, nil
	}
	return Sample{}, fmt.Errorf("network: %s: not reported", name)
}
