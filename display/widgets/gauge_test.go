package widgets

import (
	"math"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestRenderGauge_Fill(t *testing.T) {
	tests := []struct {
		name       string
		fraction   float64
		wantFilled int
	}{
		{"zero", 0, 0},
		{"half", 0.5, 10},
		{"full", 1, 20},
		{"over", 1.7, 20},
		{"negative", -0.3, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderGauge(GaugeConfig{Width: 20, Fraction: tt.fraction})
			filled := strings.Count(got, "█")
			empty := strings.Count(got, "░")
			if filled != tt.wantFilled || filled+empty != 20 {
				t.Errorf("filled/empty = %d/%d, want %d/%d", filled, empty, tt.wantFilled, 20-tt.wantFilled)
			}
		})
	}
}

func TestRenderGauge_LabelAndPercent(t *testing.T) {
	got := RenderGauge(GaugeConfig{Width: 10, Fraction: 0.42, Label: "MEM", ShowPercent: true})
	if !strings.HasPrefix(got, "MEM ") {
		t.Errorf("missing label: %q", got)
	}
	if !strings.HasSuffix(got, " 42%") {
		t.Errorf("missing percent: %q", got)
	}
}

func TestRenderGauge_DefaultWidth(t *testing.T) {
	got := RenderGauge(GaugeConfig{Fraction: 0})
	if n := strings.Count(got, "░"); n != 20 {
		t.Errorf("default width = %d, want 20", n)
	}
}

func TestGaugeColor(t *testing.T) {
	base, _ := colorful.Hex("#3b82f6")

	if got := GaugeColor(base, 0.5, 0.7); got.Hex() != base.Hex() {
		t.Errorf("below threshold = %s, want base %s", got.Hex(), base.Hex())
	}
	if got := GaugeColor(base, 1, 0.7); got.Hex() != dangerColor.Clamped().Hex() {
		t.Errorf("at full = %s, want %s", got.Hex(), dangerColor.Hex())
	}

	mid := GaugeColor(base, 0.85, 0.7)
	if mid.Hex() == base.Hex() || mid.Hex() == dangerColor.Hex() {
		t.Errorf("midway color %s should differ from both ends", mid.Hex())
	}
	if d1, d2 := mid.DistanceLab(base), mid.DistanceLab(dangerColor); d1 == 0 || d2 == 0 {
		t.Errorf("midway distances = %v, %v", d1, d2)
	}

	// Invalid thresholds fall back to 0.7.
	if got := GaugeColor(base, 0.6, 0); got.Hex() != base.Hex() {
		t.Errorf("fallback threshold changed color at 0.6: %s", got.Hex())
	}
}
