//go:build linux

package gpu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

var cardRe = regexp.MustCompile(`^card(\d+)$`)

// edgeLabel is the hwmon label of the die temperature most tools show.
const edgeLabel = "edge"

// drmSource reads DRM sysfs. Only drivers that expose gpu_busy_percent
// (amdgpu, recent i915/xe) are reported.
type drmSource struct {
	root  string
	temps func(context.Context) ([]host.TemperatureStat, error)

	cards []int
	names map[int]string
}

// NewSource returns the DRM sysfs GPU source.
func NewSource() (Source, error) {
	return &drmSource{
		root:  "/sys/class/drm",
		temps: host.SensorsTemperaturesWithContext,
	}, nil
}

func (s *drmSource) busyPath(card int) string {
	return filepath.Join(s.root, "card"+strconv.Itoa(card), "device", "gpu_busy_percent")
}

func (s *drmSource) Adapters(ctx context.Context) ([]AdapterInfo, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("gpu: read %s: %w", s.root, err)
	}

	var out []AdapterInfo
	s.cards = s.cards[:0]
	s.names = make(map[int]string)
	for _, d := range dirents {
		m := cardRe.FindStringSubmatch(d.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if _, err := os.Stat(s.busyPath(n)); err != nil {
			continue
		}
		s.cards = append(s.cards, n)
		s.names[n] = s.driverName(n) + " card" + strconv.Itoa(n)
		out = append(out, AdapterInfo{Name: s.names[n], PhysIndex: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhysIndex < out[j].PhysIndex })
	sort.Ints(s.cards)
	return out, nil
}

// driverName resolves device/driver, which links to the bound kernel
// driver, e.g. ../../bus/pci/drivers/amdgpu.
func (s *drmSource) driverName(card int) string {
	link, err := os.Readlink(filepath.Join(s.root, "card"+strconv.Itoa(card), "device", "driver"))
	if err != nil {
		return "card" + strconv.Itoa(card)
	}
	return filepath.Base(link)
}

// Engines reports one 3D engine per card.
func (s *drmSource) Engines(ctx context.Context) ([]EngineSample, error) {
	out := make([]EngineSample, 0, len(s.cards))
	for _, n := range s.cards {
		raw, err := os.ReadFile(s.busyPath(n))
		if err != nil {
			return nil, fmt.Errorf("gpu: card%d: %w", n, err)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			return nil, fmt.Errorf("gpu: card%d: gpu_busy_percent: %w", n, err)
		}
		out = append(out, EngineSample{
			Instance: EngineInstance{Phys: n, EngType: EngType3D},
			Percent:  pct,
		})
	}
	return out, nil
}

// Sensors reports one temperature per card, named like its adapter.
// Each card's own hwmon directory is read first. Cards without one fall
// back to the system sensor list, keyed by hwmon chip name, which only
// identifies a card when no other card uses the same driver.
func (s *drmSource) Sensors(ctx context.Context) ([]Sensor, error) {
	var temps []labeledTemp
	var missing []int
	for _, n := range s.cards {
		own := s.cardTemps(n)
		if len(own) == 0 {
			missing = append(missing, n)
			continue
		}
		temps = append(temps, own...)
	}
	if len(missing) == 0 || s.temps == nil {
		return preferredTemps(temps, edgeLabel), nil
	}

	stats, err := s.temps(ctx)
	if err != nil && len(stats) == 0 {
		if len(temps) > 0 {
			return preferredTemps(temps, edgeLabel), nil
		}
		return nil, fmt.Errorf("gpu: sensors: %w", err)
	}

	perDriver := make(map[string]int)
	for _, n := range s.cards {
		perDriver[s.driverName(n)]++
	}
	owners := make(map[string]string)
	for _, n := range missing {
		if drv := s.driverName(n); perDriver[drv] == 1 {
			owners[drv] = s.names[n]
		}
	}
	for _, st := range stats {
		chip, label, _ := strings.Cut(st.SensorKey, "_")
		label = strings.TrimSuffix(label, "_input")
		if owner, ok := owners[chip]; ok {
			temps = append(temps, labeledTemp{Owner: owner, Label: label, Celsius: st.Temperature})
		}
	}
	return preferredTemps(temps, edgeLabel), nil
}

// cardTemps reads temp*_input under the card's device hwmon directory.
// Values are millidegrees; labels come from the matching temp*_label.
func (s *drmSource) cardTemps(card int) []labeledTemp {
	pattern := filepath.Join(s.root, "card"+strconv.Itoa(card), "device", "hwmon", "hwmon*", "temp*_input")
	inputs, _ := filepath.Glob(pattern)
	sort.Strings(inputs)

	var out []labeledTemp
	for _, in := range inputs {
		raw, err := os.ReadFile(in)
		if err != nil {
			continue
		}
		milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
		if err != nil {
			continue
		}
		label := strings.TrimSuffix(filepath.Base(in), "_input")
		if b, err := os.ReadFile(strings.TrimSuffix(in, "_input") + "_label"); err == nil {
			label = strings.TrimSpace(string(b))
		}
		out = append(out, labeledTemp{Owner: s.names[card], Label: label, Celsius: milli / 1000})
	}
	return out
}
