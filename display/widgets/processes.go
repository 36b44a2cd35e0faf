package widgets

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gitlab.com/tinyland/lab/sysgraph/collectors/cpu"
	"gitlab.com/tinyland/lab/sysgraph/display/color"
	"gitlab.com/tinyland/lab/sysgraph/internal/format"
)

// RenderProcesses renders the top-process list as a borderless table.
func RenderProcesses(procs []cpu.Process, nameWidth int, header lipgloss.Style) string {
	if len(procs) == 0 {
		return ""
	}
	if nameWidth < 4 {
		nameWidth = 4
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers("PID", "NAME", "CPU").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				s = header.PaddingRight(2)
			}
			if col == 0 || col == 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})

	for _, p := range procs {
		t.Row(
			strconv.Itoa(int(p.PID)),
			format.Truncate(color.StripANSI(p.Name), nameWidth),
			format.Percent(p.Usage),
		)
	}
	return t.String()
}
