package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sysgraph/chart"
	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/cpu"
	"gitlab.com/tinyland/lab/sysgraph/collectors/disk"
	"gitlab.com/tinyland/lab/sysgraph/collectors/gpu"
	"gitlab.com/tinyland/lab/sysgraph/collectors/memory"
	"gitlab.com/tinyland/lab/sysgraph/collectors/network"
	"gitlab.com/tinyland/lab/sysgraph/collectors/system"
	"gitlab.com/tinyland/lab/sysgraph/display/widgets"
	"gitlab.com/tinyland/lab/sysgraph/internal/format"
)

// field is one "label value" row below the chart.
type field struct {
	label string
	value string
}

// page is the domain-specific part of a tab.
type page struct {
	primary float64
	fields  []field
	extra   string
}

// renderPage renders the chart, gauge and detail rows for entry idx of c.
func renderPage(data *system.Data, c collectors.Collector, idx int, lay LayoutConfig) string {
	d := c.Domain()
	if c.Count() == 0 {
		return styleMuted.Render(fmt.Sprintf("No %s devices found", d))
	}

	history := c.History(idx)
	p := domainPage(data, d, idx, lay)
	if p.primary == 0 && len(history) > 0 {
		p.primary = float64(history[len(history)-1]) / 100
	}

	sections := []string{
		widgets.RenderChart(history, lay.ChartWidth, lay.ChartHeight, domainColor(d)),
		widgets.RenderGauge(widgets.GaugeConfig{
			Width:       lay.GaugeWidth,
			Fraction:    p.primary,
			ShowPercent: true,
			Color:       chart.PaletteFor(d).Line,
		}),
	}
	if st, ok := collectors.Health(c, idx); ok {
		p.fields = append(p.fields, field{"Sampling", st.Summary()})
	}
	if len(p.fields) > 0 {
		sections = append(sections, renderFields(p.fields))
	}
	if p.extra != "" {
		sections = append(sections, p.extra)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// domainPage reads the typed collector for d. A registry holding some
// other implementation yields an empty page and only the history shows.
func domainPage(data *system.Data, d collectors.Domain, idx int, lay LayoutConfig) page {
	if data == nil {
		return page{}
	}
	switch d {
	case collectors.CPU:
		if c := data.CPU(); c != nil {
			return cpuPage(c.Stats(), lay)
		}
	case collectors.Memory:
		if c := data.Memory(); c != nil {
			return memoryPage(c.Stats())
		}
	case collectors.GPU:
		if c := data.GPU(); c != nil {
			if a, ok := c.Adapter(idx); ok {
				return gpuPage(a)
			}
		}
	case collectors.Network:
		if c := data.Network(); c != nil {
			if ifc, ok := c.Interface(idx); ok {
				return networkPage(ifc)
			}
		}
	case collectors.Disk:
		if c := data.Disk(); c != nil {
			if dk, ok := c.Disk(idx); ok {
				return diskPage(dk)
			}
		}
	}
	return page{}
}

func cpuPage(s cpu.Stats, lay LayoutConfig) page {
	p := page{
		primary: s.Usage,
		fields: []field{
			{"Utilization", format.Percent(s.Usage)},
			{"Speed", format.GHz(s.SpeedMHz)},
		},
	}
	if lay.ShowProcesses && len(s.Processes) > 0 {
		p.extra = sectionTitle("Top processes", lay.ChartWidth) + "\n" +
			widgets.RenderProcesses(s.Processes, lay.NameWidth, styleMuted)
	}
	return p
}

func memoryPage(s memory.Stats) page {
	return page{
		primary: s.Usage,
		fields: []field{
			{"In use", format.Bytes(s.Used) + " / " + format.Bytes(s.Total)},
			{"Available", format.Bytes(s.Available)},
			{"Committed", format.Bytes(s.Committed) + " / " + format.Bytes(s.CommitLimit)},
			{"Cached", format.Bytes(s.Cached)},
			{"Paged pool", format.Bytes(s.PagedPool)},
			{"Non-paged", format.Bytes(s.NonPagedPool)},
		},
	}
}

func gpuPage(a gpu.Adapter) page {
	return page{
		primary: a.Usage,
		fields: []field{
			{"3D", format.Percent(a.Usage)},
			{"Temperature", a.Temperature.String()},
		},
	}
}

func networkPage(i network.Interface) page {
	return page{
		primary: i.Usage,
		fields: []field{
			{"Send", format.Rate(i.SentPerSec)},
			{"Receive", format.Rate(i.RecvPerSec)},
			{"Link speed", format.Bits(i.BandwidthBitsPerSec)},
		},
	}
}

func diskPage(d disk.Disk) page {
	return page{
		primary: d.Busy,
		fields: []field{
			{"Active time", format.Percent(d.Busy)},
			{"Read", format.Rate(d.ReadPerSec)},
			{"Write", format.Rate(d.WritePerSec)},
		},
	}
}

func renderFields(fs []field) string {
	lines := make([]string, len(fs))
	for i, f := range fs {
		lines[i] = styleLabel.Render(f.label) + f.value
	}
	return strings.Join(lines, "\n")
}
