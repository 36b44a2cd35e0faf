package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks contains 8 unicode block characters for sparkline rendering,
// ordered from lowest to highest.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// chartBlocks adds an empty level below sparkBlocks for multi-row charts.
var chartBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls the appearance of a one-line sparkline.
// Values are on the 0-100 scale used by metric histories.
type SparklineConfig struct {
	// Data points to render (most recent last).
	Data []float32
	// Width is the number of characters to render. If 0, uses len(Data).
	// Short data is right-aligned so the newest point stays in place.
	Width int
	// Label is optional text shown before the sparkline.
	Label string
	// Color is the lipgloss color for the sparkline characters.
	Color lipgloss.Color
}

// clampPercent clamps v to [0,100]; NaN becomes 0.
func clampPercent(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// RenderSparkline renders a unicode sparkline on a fixed 0-100 scale.
func RenderSparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 && cfg.Width <= 0 {
		return ""
	}

	data := cfg.Data
	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if width < len(data) {
		data = data[len(data)-width:]
	}

	runes := make([]rune, 0, width)
	for i := len(data); i < width; i++ {
		runes = append(runes, ' ')
	}
	top := len(sparkBlocks) - 1
	for _, v := range data {
		idx := int(clampPercent(v) / 100 * float32(top))
		runes = append(runes, sparkBlocks[idx])
	}

	spark := string(runes)
	if cfg.Color != "" {
		spark = lipgloss.NewStyle().Foreground(cfg.Color).Render(spark)
	}
	if cfg.Label != "" {
		spark = cfg.Label + " " + spark
	}
	return spark
}

// RenderChart renders a multi-row block chart, width columns by height
// rows, on a fixed 0-100 scale. Each row resolves eight sub-levels.
func RenderChart(data []float32, width, height int, color lipgloss.Color) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	pad := width - len(data)
	levels := height * (len(chartBlocks) - 1)

	rows := make([]string, height)
	for r := 0; r < height; r++ {
		// Row 0 is the top of the chart.
		floor := (height - 1 - r) * (len(chartBlocks) - 1)
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", pad))
		for _, v := range data {
			filled := int(clampPercent(v)/100*float32(levels) + 0.5)
			n := filled - floor
			switch {
			case n <= 0:
				b.WriteRune(chartBlocks[0])
			case n >= len(chartBlocks)-1:
				b.WriteRune(chartBlocks[len(chartBlocks)-1])
			default:
				b.WriteRune(chartBlocks[n])
			}
		}
		rows[r] = b.String()
	}

	out := strings.Join(rows, "\n")
	if color != "" {
		out = lipgloss.NewStyle().Foreground(color).Render(out)
	}
	return out
}
