// Package ui prints chore's own messages, as opposed to task output, at a
// chosen verbosity.
//
// Verbosity runs from -2 (errors only) to 2. Messages are printed when their
// level is at most the printer's verbosity:
//
//	-2  errors
//	-1  warnings, dry-run actions
//	 0  actions ("Chore => ...") and plain messages
//	 1  debug messages
//	 2  traces
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/amonks/chore/internal/mutex"
	"github.com/amonks/chore/internal/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	LevelError   = -2
	LevelWarning = -1
	LevelMsg     = 0
	LevelDebug   = 1
	LevelTrace   = 2
)

type Printer struct {
	mu        *mutex.Mutex
	w         io.Writer
	renderer  *lipgloss.Renderer
	verbosity int
}

// New creates a Printer writing to w. Colors are used only when w is a
// terminal and NO_COLOR is unset.
func New(w io.Writer, verbosity int) *Printer {
	renderer := lipgloss.NewRenderer(w)
	if !Colorful(w) {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		mu:        mutex.New("ui"),
		w:         w,
		renderer:  renderer,
		verbosity: min(max(verbosity, -2), 2),
	}
}

// Colorful reports whether w should receive colored output.
func Colorful(w io.Writer) bool {
	if termenv.EnvNoColor() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *Printer) Verbosity() int { return p.verbosity }

// Enabled reports whether messages at level would be printed.
func (p *Printer) Enabled(level int) bool { return level <= p.verbosity }

// Colored reports whether the printer renders colors.
func (p *Printer) Colored() bool {
	return p.renderer.ColorProfile() != termenv.Ascii
}

// Style binds s to the printer's color profile.
func (p *Printer) Style(s lipgloss.Style) lipgloss.Style {
	return s.Renderer(p.renderer)
}

func (p *Printer) Renderer() *lipgloss.Renderer { return p.renderer }

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) Msg(level int, f string, args ...any) {
	p.println(level, fmt.Sprintf(f, args...))
}

// Action announces a command before it runs. Captured commands get a
// reversed arrow, since their output flows back into chore.
func (p *Printer) Action(action string, captured, dry bool) {
	level := LevelMsg
	if dry {
		level = LevelWarning
	}
	arrow := "Chore =>"
	if captured {
		arrow = "Chore <="
	}
	p.println(level, p.Style(styles.Arrow).Render(arrow)+" "+p.Style(styles.Action).Render(action))
}

func (p *Printer) Warning(f string, args ...any) {
	p.println(LevelWarning, p.Style(styles.Warning).Render("Warning: "+fmt.Sprintf(f, args...)))
}

func (p *Printer) Error(err error) {
	p.println(LevelError, p.Style(styles.Error).Render("Error: "+err.Error()))
}

func (p *Printer) Debug(f string, args ...any) {
	p.println(LevelDebug, p.Style(styles.Log).Render(fmt.Sprintf(f, args...)))
}

func (p *Printer) Trace(f string, args ...any) {
	p.println(LevelTrace, p.Style(styles.Log).Render(fmt.Sprintf(f, args...)))
}

func (p *Printer) println(level int, s string) {
	if !p.Enabled(level) {
		return
	}
	defer p.mu.Lock("println").Unlock()
	fmt.Fprintln(p.w, s)
}
