package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/sysgraph/chart"
	"gitlab.com/tinyland/lab/sysgraph/collectors"
	"gitlab.com/tinyland/lab/sysgraph/collectors/retry"
	"gitlab.com/tinyland/lab/sysgraph/collectors/system"
	"gitlab.com/tinyland/lab/sysgraph/display/color"
	"gitlab.com/tinyland/lab/sysgraph/display/widgets"
	"gitlab.com/tinyland/lab/sysgraph/internal/format"
)

const (
	nameWidth     = 16
	minSparkWidth = 10
	maxSparkWidth = 30
)

// sparkWidth sizes the sparkline column for a terminal of the given
// width, leaving room for the name and value columns.
func sparkWidth(termWidth int) int {
	w := termWidth - 8 - nameWidth - 40
	if w < minSparkWidth {
		return minSparkWidth
	}
	if w > maxSparkWidth {
		return maxSparkWidth
	}
	return w
}

// printOnce writes one line per entry: domain, name, sparkline, values.
func printOnce(w io.Writer, data *system.Data, domains []collectors.Domain, termWidth int) error {
	sw := sparkWidth(termWidth)
	for _, d := range domains {
		c := data.Get(d)
		if c.Count() == 0 {
			if _, err := fmt.Fprintf(w, "%-8s (none)\n", d); err != nil {
				return err
			}
			continue
		}
		for i := 0; i < c.Count(); i++ {
			spark := widgets.RenderSparkline(widgets.SparklineConfig{
				Data:  c.History(i),
				Width: sw,
				Color: lipgloss.Color(chart.PaletteFor(d).Line.Hex()),
			})
			name := format.PadRight(color.StripANSI(c.EntryName(i)), nameWidth)
			_, err := fmt.Fprintf(w, "%-8s %s %s  %s\n", d, name, spark, summary(data, d, i))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// summary renders the values of entry i as a single line.
func summary(data *system.Data, d collectors.Domain, i int) string {
	var parts []string
	switch d {
	case collectors.CPU:
		if c := data.CPU(); c != nil {
			s := c.Stats()
			parts = append(parts, format.Percent(s.Usage), format.GHz(s.SpeedMHz))
			if len(s.Processes) > 0 {
				parts = append(parts, "top "+color.StripANSI(s.Processes[0].Name))
			}
		}
	case collectors.Memory:
		if c := data.Memory(); c != nil {
			s := c.Stats()
			parts = append(parts, format.Percent(s.Usage), format.Bytes(s.Used)+" / "+format.Bytes(s.Total))
		}
	case collectors.GPU:
		if c := data.GPU(); c != nil {
			if a, ok := c.Adapter(i); ok {
				parts = append(parts, format.Percent(a.Usage), a.Temperature.String())
			}
		}
	case collectors.Network:
		if c := data.Network(); c != nil {
			if n, ok := c.Interface(i); ok {
				parts = append(parts, format.Percent(n.Usage),
					"up "+format.Rate(n.SentPerSec), "down "+format.Rate(n.RecvPerSec))
			}
		}
	case collectors.Disk:
		if c := data.Disk(); c != nil {
			if k, ok := c.Disk(i); ok {
				parts = append(parts, format.Percent(k.Busy),
					"r "+format.Rate(k.ReadPerSec), "w "+format.Rate(k.WritePerSec))
			}
		}
	}
	if len(parts) == 0 {
		h := data.Get(d).History(i)
		if len(h) > 0 {
			parts = append(parts, format.Percent(float64(h[len(h)-1])/100))
		}
	}
	if st, ok := collectors.Health(data.Get(d), i); ok && st.State != retry.StateClosed {
		parts = append(parts, "["+st.Summary()+"]")
	}
	return strings.Join(parts, "  ")
}
