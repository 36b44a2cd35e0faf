package chart

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"gitlab.com/tinyland/lab/sysgraph/collectors"
)

// Palette is the color set for one domain's chart.
type Palette struct {
	// Line strokes the outline and tops the fill gradient.
	Line colorful.Color
	// Shade is the darker color at the bottom of the fill gradient.
	Shade colorful.Color
}

const (
	topOpacity    = 0.4
	bottomOpacity = 0.25
)

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

var palettes = map[collectors.Domain]Palette{
	collectors.CPU:     {Line: rgb(57, 184, 227), Shade: rgb(0, 86, 110)},
	collectors.GPU:     {Line: rgb(222, 104, 242), Shade: rgb(125, 0, 138)},
	collectors.Memory:  {Line: rgb(92, 158, 250), Shade: rgb(0, 34, 92)},
	collectors.Network: {Line: rgb(245, 98, 142), Shade: rgb(130, 0, 47)},
}

// PaletteFor returns the palette for d. Domains without their own
// palette, Disk included, use the CPU palette.
func PaletteFor(d collectors.Domain) Palette {
	if p, ok := palettes[d]; ok {
		return p
	}
	return palettes[collectors.CPU]
}

// cssRGB formats c as rgb(r,g,b).
func cssRGB(c colorful.Color) string {
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}
