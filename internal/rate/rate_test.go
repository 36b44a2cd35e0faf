package rate

import (
	"testing"
	"time"
)

func TestMeterObserve(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var m Meter

	if _, ok := m.Observe(1000, base); ok {
		t.Fatal("first observation should only seed")
	}

	got, ok := m.Observe(3000, base.Add(2*time.Second))
	if !ok {
		t.Fatal("second observation not ok")
	}
	if got != 1000 {
		t.Errorf("rate = %v, want 1000/s", got)
	}
}

func TestMeterCounterReset(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var m Meter
	m.Observe(5000, base)

	if _, ok := m.Observe(10, base.Add(time.Second)); ok {
		t.Error("counter going backwards should not produce a rate")
	}
	got, ok := m.Observe(110, base.Add(2*time.Second))
	if !ok || got != 100 {
		t.Errorf("after reset rate = %v, %v; want 100, true", got, ok)
	}
}

func TestMeterZeroInterval(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var m Meter
	m.Observe(1, at)
	if _, ok := m.Observe(2, at); ok {
		t.Error("zero interval should not produce a rate")
	}
}

func TestMeterFraction(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		busy time.Duration
		want float64
	}{
		{name: "quarter busy", busy: 250 * time.Millisecond, want: 0.25},
		{name: "idle", busy: 0, want: 0},
		{name: "overlapping io clamps", busy: 3 * time.Second, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Meter
			m.Fraction(10*time.Second, base)
			got, ok := m.Fraction(10*time.Second+tt.busy, base.Add(time.Second))
			if !ok {
				t.Fatal("not ok")
			}
			if got != tt.want {
				t.Errorf("fraction = %v, want %v", got, tt.want)
			}
		})
	}
}
