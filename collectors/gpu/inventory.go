package gpu

import (
	"fmt"
	"sort"
	"strings"
)

// Phys3D returns the distinct physical indexes that carry at least one
// 3D engine, in ascending order.
func Phys3D(engines []EngineSample) []int {
	seen := make(map[int]bool)
	var out []int
	for _, e := range engines {
		if e.Instance.EngType != EngType3D || seen[e.Instance.Phys] {
			continue
		}
		seen[e.Instance.Phys] = true
		out = append(out, e.Instance.Phys)
	}
	sort.Ints(out)
	return out
}

// AssignNames pairs physical indexes with device inventory names in
// order. Indexes beyond the inventory are named "GPU <phys>".
func AssignNames(phys []int, names []string) []AdapterInfo {
	out := make([]AdapterInfo, 0, len(phys))
	for i, p := range phys {
		name := fmt.Sprintf("GPU %d", p)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = strings.TrimSpace(names[i])
		}
		out = append(out, AdapterInfo{Name: name, PhysIndex: p})
	}
	return out
}

// labeledTemp is one reading from a sensor inventory, tagged with the
// device that owns it.
type labeledTemp struct {
	Owner   string
	Label   string
	Celsius float64
}

// preferredTemps keeps one reading per owner: the one labelled prefer
// (case-insensitive), otherwise the first by label. Owners come back in
// the order they first appear.
func preferredTemps(temps []labeledTemp, prefer string) []Sensor {
	best := make(map[string]labeledTemp)
	var order []string
	for _, t := range temps {
		cur, ok := best[t.Owner]
		if !ok {
			order = append(order, t.Owner)
			best[t.Owner] = t
			continue
		}
		if strings.EqualFold(cur.Label, prefer) {
			continue
		}
		if strings.EqualFold(t.Label, prefer) || t.Label < cur.Label {
			best[t.Owner] = t
		}
	}
	out := make([]Sensor, 0, len(order))
	for _, o := range order {
		out = append(out, Sensor{Name: o, Celsius: best[o].Celsius})
	}
	return out
}
