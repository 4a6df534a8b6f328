// Package help renders two-column listings, such as the task list.
package help

import (
	"strings"

	"github.com/amonks/chore/internal/color"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

type Menu []Section

type Section struct {
	Title string
	Keys  []Key
}

type Key struct {
	Keys string
	Desc string
}

const (
	minKeyWidth = 13
	maxKeyWidth = 30
)

var (
	Monochrome = &Styles{
		Container: lipgloss.NewStyle(),
		Header:    lipgloss.NewStyle().Transform(strings.ToUpper),
		Keys:      lipgloss.NewStyle().Bold(true),
		Desc:      lipgloss.NewStyle(),
	}
	Colored = &Styles{
		Container: lipgloss.NewStyle(),
		Header: lipgloss.NewStyle().
			Transform(strings.ToUpper).
			Bold(true).
			Foreground(color.Yellow),
		Keys: lipgloss.NewStyle().Bold(true).
			Foreground(color.Cyan),
		Desc: lipgloss.NewStyle().
			Foreground(color.XLight),
	}
)

type Styles struct {
	Container lipgloss.Style
	Header    lipgloss.Style
	Keys      lipgloss.Style
	Desc      lipgloss.Style
}

// Bind returns a copy of s that renders with r's color profile.
func (s *Styles) Bind(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Container: s.Container.Renderer(r),
		Header:    s.Header.Renderer(r),
		Keys:      s.Keys.Renderer(r),
		Desc:      s.Desc.Renderer(r),
	}
}

// Render lays the menu out in two columns. Descriptions longer than the
// remaining width are wrapped, and continuation lines are indented to the
// description column. Keys too wide for the key column push their
// description onto the next line.
func (m Menu) Render(styles *Styles, width int) string {
	keyWidth := minKeyWidth
	for _, section := range m {
		for _, k := range section.Keys {
			keyWidth = max(keyWidth, lipgloss.Width(k.Keys))
		}
	}
	keyWidth = min(keyWidth, maxKeyWidth)

	descIndent := uint(2 + keyWidth + 2)
	descWidth := max(width-int(descIndent), 20)

	var out strings.Builder
	for i, section := range m {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(styles.Header.Render(section.Title) + "\n")
		for _, k := range section.Keys {
			desc := strings.TrimSpace(k.Desc)
			lines := strings.Split(wordwrap.String(desc, descWidth), "\n")
			for j, l := range lines {
				lines[j] = styles.Desc.Render(l)
			}
			wrapped := strings.Join(lines, "\n")

			key := styles.Keys.Render(k.Keys)
			pad := keyWidth - lipgloss.Width(k.Keys)
			switch {
			case desc == "":
				out.WriteString("  " + key + "\n")
			case pad < 0:
				out.WriteString("  " + key + "\n")
				out.WriteString(indent.String(wrapped, descIndent) + "\n")
			default:
				first, rest, _ := strings.Cut(wrapped, "\n")
				out.WriteString("  " + key + strings.Repeat(" ", pad+2) + first + "\n")
				if rest != "" {
					out.WriteString(indent.String(rest, descIndent) + "\n")
				}
			}
		}
	}
	return styles.Container.Render(out.String())
}
