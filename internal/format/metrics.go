// Package format renders metric values, sampling periods and names for
// terminal output.
package format

import (
	"fmt"
	"math"
)

// Percent renders a [0,1] fraction as "42%". Values outside the range
// are clamped.
func Percent(fraction float64) string {
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fmt.Sprintf("%.0f%%", fraction*100)
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// Bytes renders a byte count with binary multiples: "512 B", "1.5 GB".
func Bytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[i])
}

// Rate renders a per-second byte rate: "1.2 MB/s".
func Rate(perSec uint64) string {
	return Bytes(perSec) + "/s"
}

// Bits renders a link speed in bits per second: "1 Gbps", "100 Mbps".
// Zero renders as "--".
func Bits(bps uint64) string {
	switch {
	case bps == 0:
		return "--"
	case bps >= 1_000_000_000:
		return trimZero(float64(bps)/1e9) + " Gbps"
	case bps >= 1_000_000:
		return trimZero(float64(bps)/1e6) + " Mbps"
	case bps >= 1_000:
		return trimZero(float64(bps)/1e3) + " Kbps"
	}
	return fmt.Sprintf("%d bps", bps)
}

// GHz renders a MHz clock as "3.20 GHz". Zero renders as "--".
func GHz(mhz float64) string {
	if mhz <= 0 {
		return "--"
	}
	return fmt.Sprintf("%.2f GHz", mhz/1000)
}

// Celsius renders a temperature, or "--" when it is not known. An
// unknown reading must never render as 0°C.
func Celsius(c float64, known bool) string {
	if !known {
		return "--"
	}
	return fmt.Sprintf("%.0f°C", c)
}

func trimZero(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
