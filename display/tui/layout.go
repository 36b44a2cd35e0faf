package tui

import "strings"

// LayoutSize represents a responsive breakpoint for terminal size.
type LayoutSize int

const (
	// LayoutCompact is used for terminals narrower than 60 characters.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is used for terminals between 60 and 120 characters wide.
	LayoutNormal
	// LayoutWide is used for terminals wider than 120 characters.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal width.
func DetectLayout(width int) LayoutSize {
	switch {
	case width < 60:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// LayoutConfig holds responsive layout values that adapt to terminal size.
type LayoutConfig struct {
	// ChartWidth is the number of history columns drawn.
	ChartWidth int
	// ChartHeight is the number of rows the history chart spans.
	ChartHeight int
	// GaugeWidth is the character width for gauge bars.
	GaugeWidth int
	// ShowProcesses controls whether the CPU top-process table is shown.
	ShowProcesses bool
	// NameWidth bounds process and device names.
	NameWidth int
}

// chrome is the number of rows used by the header, title, gauge and footer.
const chrome = 12

// LayoutForSize returns a LayoutConfig for the given breakpoint and
// terminal dimensions.
func LayoutForSize(size LayoutSize, width, height int) LayoutConfig {
	var cfg LayoutConfig
	switch size {
	case LayoutCompact:
		cfg = LayoutConfig{GaugeWidth: 10, ShowProcesses: false, NameWidth: 12}
	case LayoutWide:
		cfg = LayoutConfig{GaugeWidth: 40, ShowProcesses: true, NameWidth: 32}
	default: // LayoutNormal
		cfg = LayoutConfig{GaugeWidth: 24, ShowProcesses: true, NameWidth: 20}
	}

	cfg.ChartWidth = width - 6
	if cfg.ChartWidth < 1 {
		cfg.ChartWidth = 1
	}
	cfg.ChartHeight = clampInt(height-chrome, 2, 12)
	return cfg
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sectionTitle renders a centered title with horizontal rules on either side.
// Format: "---- Title ----"
func sectionTitle(title string, width int) string {
	if width <= 0 {
		return title
	}

	titleLen := len([]rune(title))
	// 2 spaces around the title text.
	decorLen := titleLen + 2
	if decorLen >= width {
		return title
	}

	remaining := width - decorLen
	leftLen := remaining / 2
	rightLen := remaining - leftLen

	left := strings.Repeat("─", leftLen)
	right := strings.Repeat("─", rightLen)

	return left + " " + title + " " + right
}
