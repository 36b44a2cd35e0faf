//go:build windows

package gpu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yusufpapurcu/wmi"

	"gitlab.com/tinyland/lab/sysgraph/internal/perfcounter"
)

const (
	engineCounter = `\GPU Engine(*)\Utilization Percentage`

	// LibreHardwareMonitor publishes its sensors here while it runs.
	lhmNamespace = `root\LibreHardwareMonitor`
	lhmCoreLabel = "GPU Core"
)

type win32VideoController struct {
	Name     string
	DeviceID string
}

type lhmHardware struct {
	Identifier   string
	Name         string
	HardwareType string
}

type lhmSensor struct {
	Name   string
	Parent string
	Value  float32
}

// pdhSource reads the GPU Engine counter set for utilisation, the video
// controller inventory for names, and LibreHardwareMonitor for
// temperatures when it is available.
type pdhSource struct {
	q       *perfcounter.Query
	engines *perfcounter.Counter
	sensors bool
}

// NewSource opens a PDH query on the GPU Engine counters. The query is
// collected once so the first Refresh has a baseline.
func NewSource() (Source, error) {
	q, err := perfcounter.Open()
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	c, err := q.Add(engineCounter)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("gpu: %w", err), q.Close())
	}
	if err := q.Collect(); err != nil {
		return nil, errors.Join(fmt.Errorf("gpu: %w", err), q.Close())
	}
	s := &pdhSource{q: q, engines: c}

	var hw []lhmHardware
	s.sensors = queryWMI(context.Background(), "SELECT Identifier FROM Hardware", &hw, lhmNamespace) == nil
	return s, nil
}

// queryWMI runs a WMI query and gives up when ctx ends. An empty
// namespace means the default one.
func queryWMI(ctx context.Context, query string, dst any, namespace string) error {
	var args []any
	if namespace != "" {
		args = []any{nil, namespace}
	}
	errc := make(chan error, 1)
	go func() {
		errc <- wmi.Query(query, dst, args...)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *pdhSource) read() ([]EngineSample, error) {
	if err := s.q.Collect(); err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	values, err := s.engines.Values()
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	out := make([]EngineSample, 0, len(values))
	for name, v := range values {
		in, err := ParseEngineInstance(name)
		if err != nil {
			continue
		}
		out = append(out, EngineSample{Instance: in, Percent: v})
	}
	return out, nil
}

// Adapters keeps the physical indexes that have a 3D engine and names
// them after the video controllers, in device order. If the inventory
// cannot be read the adapters keep generic names.
func (s *pdhSource) Adapters(ctx context.Context) ([]AdapterInfo, error) {
	engines, err := s.read()
	if err != nil {
		return nil, err
	}

	var vcs []win32VideoController
	if err := queryWMI(ctx, "SELECT Name, DeviceID FROM Win32_VideoController", &vcs, ""); err != nil {
		vcs = nil
	}
	sort.Slice(vcs, func(i, j int) bool { return vcs[i].DeviceID < vcs[j].DeviceID })
	names := make([]string, len(vcs))
	for i, vc := range vcs {
		names[i] = vc.Name
	}
	return AssignNames(Phys3D(engines), names), nil
}

func (s *pdhSource) Engines(ctx context.Context) ([]EngineSample, error) {
	return s.read()
}

// Sensors reports one temperature per GPU known to LibreHardwareMonitor,
// named like the video controller. Without it there are no readings.
func (s *pdhSource) Sensors(ctx context.Context) ([]Sensor, error) {
	if !s.sensors {
		return nil, nil
	}
	var hw []lhmHardware
	if err := queryWMI(ctx, "SELECT Identifier, Name, HardwareType FROM Hardware", &hw, lhmNamespace); err != nil {
		return nil, fmt.Errorf("gpu: hardware inventory: %w", err)
	}
	var readings []lhmSensor
	if err := queryWMI(ctx, "SELECT Name, Parent, Value FROM Sensor WHERE SensorType = 'Temperature'", &readings, lhmNamespace); err != nil {
		return nil, fmt.Errorf("gpu: temperature sensors: %w", err)
	}

	gpus := make(map[string]string)
	for _, h := range hw {
		if strings.HasPrefix(h.HardwareType, "Gpu") {
			gpus[h.Identifier] = h.Name
		}
	}
	temps := make([]labeledTemp, 0, len(readings))
	for _, r := range readings {
		if name, ok := gpus[r.Parent]; ok {
			temps = append(temps, labeledTemp{Owner: name, Label: r.Name, Celsius: float64(r.Value)})
		}
	}
	return preferredTemps(temps, lhmCoreLabel), nil
}

func (s *pdhSource) Close() error {
	return s.q.Close()
}
