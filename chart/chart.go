// Package chart renders metric histories as fixed-size SVG sparklines
// with a gradient area fill, encoded as data URIs for inline display.
//
// Rendering is a pure function of its inputs and safe for concurrent use.
package chart

import (
	"encoding/base64"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

// Canvas geometry. The drawable interior is 262x100 inside a 1px border.
const (
	Width    = 264
	Height   = 102
	Spacing  = 9
	Capacity = 30
	Baseline = Height - 1
)

// DataURIPrefix starts every rendered artifact.
const DataURIPrefix = "data:image/svg+xml;base64,"

// StartX returns the x coordinate of the oldest of n points. Points are
// right-aligned so the newest sample always lands on the same column.
func StartX(n int) int {
	if n > Capacity {
		n = Capacity
	}
	if n < 0 {
		n = 0
	}
	return 1 + (Capacity-n)*Spacing
}

// Y maps a 0-100 value to its y coordinate. Values outside the range are
// clamped and NaN is drawn as 0.
func Y(v float32) float32 {
	switch {
	case v != v || v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return Baseline - v
}

// Point is one vertex of the outline.
type Point struct {
	X int
	Y float32
}

// Points lays out the last Capacity values.
func Points(values []float32) []Point {
	if len(values) > Capacity {
		values = values[len(values)-Capacity:]
	}
	x := StartX(len(values))
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{X: x + i*Spacing, Y: Y(v)}
	}
	return out
}

// Render returns the sparkline for values as a data URI.
func Render(values []float32, d collectors.Domain) string {
	svg := SVG(values, d)
	return DataURIPrefix + base64.StdEncoding.EncodeToString([]byte(svg))
}

// SVG returns the sparkline markup. The shapes are drawn fill first so
// the outline stays visible, then the outline, then the border.
func SVG(values []float32, d collectors.Domain) string {
	pal := PaletteFor(d)
	line := cssRGB(pal.Line)
	gradID := "fill-" + d.String()
	pts := Points(values)

	var outline strings.Builder
	writePoints(&outline, pts)

	var area strings.Builder
	writePoints(&area, pts)
	if len(pts) > 0 {
		area.WriteByte(' ')
		writePoint(&area, Point{X: pts[len(pts)-1].X, Y: Baseline})
		area.WriteByte(' ')
		writePoint(&area, Point{X: pts[0].X, Y: Baseline})
	}

	var b strings.Builder
	b.Grow(512 + outline.Len()*2)

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="264" height="102" viewBox="0 0 264 102">`)
	b.WriteString(`<defs><linearGradient id="`)
	b.WriteString(gradID)
	b.WriteString(`" x1="0%" y1="0%" x2="0%" y2="100%">`)
	b.WriteString(`<stop offset="0%" style="stop-color:`)
	b.WriteString(line)
	b.WriteString(`;stop-opacity:`)
	b.WriteString(strconv.FormatFloat(topOpacity, 'f', -1, 64))
	b.WriteString(`"/><stop offset="95%" style="stop-color:`)
	b.WriteString(cssRGB(pal.Shade))
	b.WriteString(`;stop-opacity:`)
	b.WriteString(strconv.FormatFloat(bottomOpacity, 'f', -1, 64))
	b.WriteString(`"/></linearGradient></defs>`)

	b.WriteString(`<polygon points="`)
	b.WriteString(area.String())
	b.WriteString(`" style="fill:url(#`)
	b.WriteString(gradID)
	b.WriteString(`);stroke:none"/>`)

	b.WriteString(`<polyline points="`)
	b.WriteString(outline.String())
	b.WriteString(`" style="fill:none;stroke:`)
	b.WriteString(line)
	b.WriteString(`;stroke-width:1"/>`)

	b.WriteString(`<rect x="0.5" y="0.5" width="263" height="101" style="fill:none;stroke:lightgrey;stroke-width:1"/>`)
	b.WriteString(`</svg>`)
	return b.String()
}

func writePoints(b *strings.Builder, pts []Point) {
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		writePoint(b, p)
	}
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(strconv.Itoa(p.X))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(float64(p.Y), 'f', -1, 32))
}
