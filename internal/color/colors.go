package color

import "github.com/charmbracelet/lipgloss"

// https://ethanschoonover.com/solarized/#the-values
var (
	Yellow  = lipgloss.Color("#B58900")
	Orange  = lipgloss.Color("#CB4B16")
	Red     = lipgloss.Color("#DC322F")
	Magenta = lipgloss.Color("#D33682")
	Violet  = lipgloss.Color("#6C71C4")
	Blue    = lipgloss.Color("#268BD2")
	Cyan    = lipgloss.Color("#2AA198")
	Green   = lipgloss.Color("#859900")

	XXXLight = lipgloss.AdaptiveColor{Dark: "#FDF6E3", Light: "#002B36"} // base3
	XLight   = lipgloss.AdaptiveColor{Dark: "#93A1A1", Light: "#586E75"} // base1
	XDark    = lipgloss.AdaptiveColor{Dark: "#586E75", Light: "#93A1A1"} // base01
)

// prefixes are handed out to parallel subtasks in order. Red is kept for
// errors.
var prefixes = []lipgloss.Color{Blue, Magenta, Cyan, Yellow, Violet, Green, Orange}

// Cycle returns the i'th prefix color, wrapping around.
func Cycle(i int) lipgloss.Color {
	if i < 0 {
		i = -i
	}
	return prefixes[i%len(prefixes)]
}
