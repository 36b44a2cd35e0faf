package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// dangerColor is what a gauge blends towards as it fills past HeatFrom.
var dangerColor = colorful.Color{R: 0xEF / 255.0, G: 0x44 / 255.0, B: 0x44 / 255.0}

// GaugeConfig controls the appearance of a horizontal usage bar.
type GaugeConfig struct {
	// Width is the total character width of the bar.
	Width int
	// Fraction is the filled share in [0,1].
	Fraction float64
	// Label is optional text shown to the left of the bar.
	Label string
	// ShowPercent controls whether "XX%" is shown to the right.
	ShowPercent bool
	// Color is the bar color at low load.
	Color colorful.Color
	// HeatFrom is the fraction where the color starts shifting towards
	// red (default 0.7).
	HeatFrom float64
}

// GaugeColor returns the bar color for a fraction: the base color up to
// heatFrom, then blended in Lab space towards red, fully red at 1.
func GaugeColor(base colorful.Color, fraction, heatFrom float64) colorful.Color {
	if heatFrom <= 0 || heatFrom >= 1 {
		heatFrom = 0.7
	}
	if fraction <= heatFrom {
		return base
	}
	t := math.Min(1, (fraction-heatFrom)/(1-heatFrom))
	return base.BlendLab(dangerColor, t).Clamped()
}

// RenderGauge renders a horizontal bar gauge with optional label and percentage.
// Format: [Label] [████████░░░░] [XX%]
func RenderGauge(cfg GaugeConfig) string {
	f := cfg.Fraction
	if f != f || f < 0 {
		f = 0
	}
	f = math.Min(1, f)

	width := cfg.Width
	if width <= 0 {
		width = 20
	}

	filled := int(math.Round(f * float64(width)))
	bar := lipgloss.NewStyle().
		Foreground(lipgloss.Color(GaugeColor(cfg.Color, f, cfg.HeatFrom).Hex())).
		Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", width-filled)

	var sb strings.Builder
	if cfg.Label != "" {
		sb.WriteString(cfg.Label)
		sb.WriteString(" ")
	}
	sb.WriteString(bar)
	if cfg.ShowPercent {
		sb.WriteString(fmt.Sprintf(" %3.0f%%", f*100))
	}
	return sb.String()
}
