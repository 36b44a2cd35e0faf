// Package color decides whether terminal output should carry ANSI color.
//
// It honors NO_COLOR (https://no-color.org/) and TERM=dumb, and turns
// color off when the target is not a terminal. When color is disabled,
// lipgloss is switched to the Ascii profile so every styled render
// produces plain text.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// IsTerminal reports whether fd is an interactive terminal, including
// Cygwin/MSYS pseudo terminals.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ShouldDisableColor returns true if output to f should be plain text:
//   - NO_COLOR is set (any value)
//   - TERM is "dumb"
//   - f is not a terminal (pipe or redirect)
func ShouldDisableColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	if os.Getenv("TERM") == "dumb" {
		return true
	}
	if f == nil {
		return true
	}
	return !IsTerminal(f.Fd())
}

// Profile returns the color profile to use for f.
func Profile(f *os.File) termenv.Profile {
	if ShouldDisableColor(f) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}

// Apply configures the global lipgloss renderer for output to f.
// Returns true if color is enabled.
func Apply(f *os.File) bool {
	p := Profile(f)
	lipgloss.SetColorProfile(p)
	return p != termenv.Ascii
}

// ForceDisable sets the lipgloss color profile to Ascii, unconditionally
// disabling all color output.
func ForceDisable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// StripANSI removes ANSI escape sequences from s. Process and device
// names read from the OS go through it before they reach the terminal.
func StripANSI(s string) string {
	return ansi.Strip(s)
}
