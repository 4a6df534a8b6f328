package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/amonks/chore/graph"
	"github.com/amonks/chore/internal/color"
	"github.com/amonks/chore/internal/styles"
	"github.com/amonks/chore/runner"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 100 * time.Millisecond

type (
	msgPoll   struct{}
	msgDone   struct{}
	msgOutput string
)

type model struct {
	renderer *lipgloss.Renderer
	status   func() runner.Status

	snapshot runner.Status
	spinner  spinner.Model
	done     bool
}

func (m *model) Init() tea.Cmd {
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	return tea.Batch(m.spinner.Tick, poll())
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return msgPoll{} })
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case msgPoll:
		if m.status != nil {
			m.snapshot = m.status()
		}
		return m, poll()

	case msgOutput:
		return m, tea.Println(strings.TrimSuffix(string(msg), "\n"))

	case msgDone:
		if m.status != nil {
			m.snapshot = m.status()
		}
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) View() string {
	spin := m.spinner.View()
	if m.done {
		spin = ""
	}
	return render(m.renderer, m.snapshot, spin)
}

var markers = map[runner.TaskStatus]string{
	runner.TaskStatusNotStarted: "·",
	runner.TaskStatusDone:       "✓",
	runner.TaskStatusFailed:     "✗",
	runner.TaskStatusSkipped:    "-",
	runner.TaskStatusCanceled:   "⊘",
}

// render draws one line per stage. Tasks in a stage are listed side by side,
// each behind a marker for its status, or spin while it runs.
func render(r *lipgloss.Renderer, status runner.Status, spin string) string {
	if len(status.Stages) == 0 {
		return ""
	}
	var (
		header = styles.Header.Renderer(r)
		dim    = styles.Dim.Renderer(r)
		failed = styles.Error.Renderer(r)
		b      strings.Builder
	)
	b.WriteString(header.Render("Plan") + "\n")
	for i, stage := range status.Stages {
		items := make([]string, len(stage))
		for j, id := range stage {
			items[j] = item(r, id, status.Tasks[id], spin, dim, failed)
		}
		b.WriteString(dim.Render(stageLabel(i)) + " " + strings.Join(items, "  ") + "\n")
	}
	return b.String()
}

func item(r *lipgloss.Renderer, id graph.Identity, st runner.TaskStatus, spin string, dim, failed lipgloss.Style) string {
	marker := markers[st]
	if st == runner.TaskStatusRunning {
		marker = spin
	}
	name := id.Name
	if id.Captured {
		name += " (captured)"
	}
	switch st {
	case runner.TaskStatusFailed:
		return failed.Render(marker + " " + name)
	case runner.TaskStatusNotStarted, runner.TaskStatusSkipped, runner.TaskStatusCanceled:
		return dim.Render(marker + " " + name)
	}
	return marker + " " + lipgloss.NewStyle().Renderer(r).Foreground(color.Hash(id.Name)).Render(name)
}

func stageLabel(i int) string {
	return fmt.Sprintf("%2d.", i+1)
}
