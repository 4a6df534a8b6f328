// Package printer interleaves the output of concurrent subtasks, prefixing
// every line with the name of the subtask that wrote it.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amonks/chore/internal/color"
	"github.com/amonks/chore/internal/mutex"
	"github.com/amonks/chore/internal/outputwriter"
	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultTemplate = "{name}"
	DefaultMax      = 16
)

type Printer struct {
	mu          *mutex.Mutex
	stdout      io.Writer
	renderer    *lipgloss.Renderer
	gutterWidth int
	colored     bool
}

// New creates a Printer writing to stdout. Prefixes are right-aligned in a
// gutter of the given width, and colored round-robin if colored is set.
func New(stdout io.Writer, renderer *lipgloss.Renderer, gutterWidth int, colored bool) *Printer {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	return &Printer{
		mu:          mutex.New("printer"),
		stdout:      stdout,
		renderer:    renderer,
		gutterWidth: gutterWidth,
		colored:     colored,
	}
}

// Prefix fills in the {name} and {index} placeholders of template and
// truncates the result to max runes. A max of 0 or less disables truncation.
func Prefix(template, name string, index, max int) string {
	if template == "" {
		template = DefaultTemplate
	}
	s := strings.NewReplacer("{name}", name, "{index}", strconv.Itoa(index)).Replace(template)
	if r := []rune(s); max > 0 && len(r) > max {
		s = string(r[:max])
	}
	return s
}

// Write prints each line of message behind the given prefix.
func (p *Printer) Write(prefix string, index int, message string) {
	p.mu.Lock("Write:" + prefix)
	defer p.mu.Unlock()

	style := keyStyle.Renderer(p.renderer).Width(p.gutterWidth)
	if p.colored {
		style = style.Foreground(color.Cycle(index))
	}
	gutter := style.Render(prefix)
	for _, l := range strings.Split(strings.TrimSuffix(message, "\n"), "\n") {
		fmt.Fprintln(p.stdout, gutter+separator+l)
	}
}

// Writer returns a line-buffered writer whose lines are printed behind the
// given prefix. Flush it once the writer is done.
func (p *Printer) Writer(prefix string, index int) *outputwriter.Writer {
	return outputwriter.New(printerWriter{p, prefix, index})
}

var _ io.Writer = printerWriter{}

type printerWriter struct {
	printer *Printer
	prefix  string
	index   int
}

func (w printerWriter) Write(bs []byte) (int, error) {
	w.printer.Write(w.prefix, w.index, string(bs))
	return len(bs), nil
}

const separator = " | "

var keyStyle = lipgloss.NewStyle().
	Height(1).
	Align(lipgloss.Right)
