// Package progress shows the plan of a run as a live list of tasks, with task
// output scrolling above it.
package progress

import (
	"context"
	"io"

	"github.com/amonks/chore/internal/mutex"
	"github.com/amonks/chore/internal/outputwriter"
	"github.com/amonks/chore/runner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Display struct {
	mu      *mutex.Mutex
	program *tea.Program
	model   *model
	writers []*outputwriter.Writer
}

// New creates a display drawing to out. Input is not read, and signals are
// left to the caller.
func New(out io.Writer) *Display {
	m := &model{renderer: lipgloss.NewRenderer(out)}
	return &Display{
		mu:    mutex.New("progress"),
		model: m,
		program: tea.NewProgram(m,
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
	}
}

// Writer returns a line-buffered writer whose lines are printed above the
// display.
func (d *Display) Writer() io.Writer {
	defer d.mu.Lock("Writer").Unlock()
	w := outputwriter.New(lineWriter{d.program})
	d.writers = append(d.writers, w)
	return w
}

type lineWriter struct{ program *tea.Program }

func (w lineWriter) Write(bs []byte) (int, error) {
	w.program.Send(msgOutput(bs))
	return len(bs), nil
}

// Run shows the display until run returns. status is polled for the state
// of every planned task.
func (d *Display) Run(ctx context.Context, status func() runner.Status, run func() (int, error)) (int, error) {
	d.model.status = status

	exited := make(chan error, 1)
	go func() {
		_, err := d.program.Run()
		exited <- err
	}()

	code, err := run()

	d.mu.Lock("Run")
	for _, w := range d.writers {
		w.Flush()
	}
	d.mu.Unlock()

	d.program.Send(msgDone{})
	select {
	case uiErr := <-exited:
		if err == nil && uiErr != nil && uiErr != tea.ErrProgramKilled {
			err = uiErr
		}
	case <-ctx.Done():
		d.program.Kill()
		<-exited
	}
	return code, err
}
