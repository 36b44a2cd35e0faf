package format

import (
	"math"
	"testing"
	"time"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0%"},
		{0.5, "50%"},
		{0.426, "43%"},
		{1, "100%"},
		{1.7, "100%"},
		{-0.2, "0%"},
		{math.NaN(), "0%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{16 << 30, "16.0 GB"},
		{3 << 40, "3.0 TB"},
	}
	for _, tt := range tests {
		if got := Bytes(tt.in); got != tt.want {
			t.Errorf("Bytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Rate(2 << 20); got != "2.0 MB/s" {
		t.Errorf("Rate = %q", got)
	}
}

func TestBits(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "--"},
		{800, "800 bps"},
		{1_000_000_000, "1 Gbps"},
		{2_500_000_000, "2.5 Gbps"},
		{100_000_000, "100 Mbps"},
		{56_000, "56 Kbps"},
	}
	for _, tt := range tests {
		if got := Bits(tt.in); got != tt.want {
			t.Errorf("Bits(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGHzAndCelsius(t *testing.T) {
	if got := GHz(3200); got != "3.20 GHz" {
		t.Errorf("GHz(3200) = %q", got)
	}
	if got := GHz(0); got != "--" {
		t.Errorf("GHz(0) = %q", got)
	}
	if got := Celsius(0, false); got != "--" {
		t.Errorf("unknown Celsius = %q, want --", got)
	}
	if got := Celsius(0, true); got != "0°C" {
		t.Errorf("known zero Celsius = %q", got)
	}
	if got := Celsius(64.6, true); got != "65°C" {
		t.Errorf("Celsius(64.6) = %q", got)
	}
}

func TestInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{250 * time.Millisecond, "250ms"},
		{time.Second, "1s"},
		{1500 * time.Millisecond, "1.5s"},
		{2 * time.Minute, "2m"},
		{90 * time.Second, "1m30s"},
		{-5 * time.Second, "5s"},
	}
	for _, tt := range tests {
		if got := Interval(tt.in); got != tt.want {
			t.Errorf("Interval(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"eth0", 10, "eth0"},
		{"nvme0n1", 5, "nvme…"},
		{"nvme0n1", 1, "n"},
		{"显卡控制器", 5, "显卡…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if Width(got) > tt.width {
			t.Errorf("Truncate(%q, %d) is %d columns wide", tt.in, tt.width, Width(got))
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"sda", 6, "sda   "},
		{"网卡", 6, "网卡  "},
		{"Intel(R) Ethernet", 8, "Intel(R…"},
	}
	for _, tt := range tests {
		got := PadRight(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if Width(got) != tt.width {
			t.Errorf("PadRight(%q, %d) is %d columns wide", tt.in, tt.width, Width(got))
		}
	}
}
