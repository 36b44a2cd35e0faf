package format

import "github.com/mattn/go-runewidth"

// cells measures terminal columns with East Asian ambiguous runes as
// narrow, regardless of the locale.
var cells = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// Width returns the number of terminal columns s occupies.
func Width(s string) int {
	return cells.StringWidth(s)
}

// Truncate shortens a device or process name to at most width terminal
// columns, ending it with "…" when something was cut. Wide runes count
// as two columns. Widths below 2 cut without the ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if width < 2 {
		return cells.Truncate(s, width, "")
	}
	return cells.Truncate(s, width, "…")
}

// PadRight truncates s to width columns and pads it with spaces to
// exactly width columns, for aligned name columns.
func PadRight(s string, width int) string {
	return cells.FillRight(Truncate(s, width), width)
}
