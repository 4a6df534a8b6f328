package styles

import (
	"github.com/amonks/chore/internal/color"
	"github.com/charmbracelet/lipgloss"
)

var (
	Log = lipgloss.NewStyle().
		Foreground(color.XLight).
		Italic(true)

	// Arrow is the "Chore =>" marker before an action.
	Arrow = lipgloss.NewStyle().
		Foreground(color.Blue).
		Bold(true)
	Action = lipgloss.NewStyle().
		Foreground(color.XXXLight)

	Warning = lipgloss.NewStyle().
		Foreground(color.Yellow)
	Error = lipgloss.NewStyle().
		Foreground(color.Red).
		Bold(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Underline(true)
	Em = lipgloss.NewStyle().
		Foreground(color.Cyan).
		Bold(true)
	Dim = lipgloss.NewStyle().
		Foreground(color.XDark)
)
