package main

import (
	"io"
	"os"
	"strings"

	"github.com/amonks/chore/internal/help"
	"github.com/amonks/chore/internal/ui"
	"github.com/amonks/chore/tasks"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/dedent"
	"golang.org/x/term"
)

const defaultWidth = 80

// taskList renders the tasks that can be invoked, for w.
func taskList(lib tasks.Library, w io.Writer) string {
	styles, width := help.Monochrome, defaultWidth
	if ui.Colorful(w) {
		styles = help.Colored.Bind(lipgloss.NewRenderer(w))
	}
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}
	return menu(lib).Render(styles, width)
}

func menu(lib tasks.Library) help.Menu {
	var keys []help.Key
	for _, s := range lib.Visible() {
		keys = append(keys, help.Key{
			Keys: s.Name,
			Desc: strings.TrimSpace(dedent.String(strings.Trim(s.Description(), "\n"))),
		})
	}
	if len(keys) == 0 {
		return help.Menu{{Title: "No tasks are configured"}}
	}
	return help.Menu{{Title: "Configured tasks", Keys: keys}}
}
