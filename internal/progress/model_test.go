package progress

import (
	"strings"
	"testing"

	"github.com/amonks/chore/graph"
	"github.com/amonks/chore/runner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func ascii() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(nil)
	r.SetColorProfile(termenv.Ascii)
	return r
}

func TestRender(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", render(ascii(), runner.Status{}, "*"))
	})

	t.Run("stages", func(t *testing.T) {
		var (
			build   = graph.Identity{Name: "build"}
			version = graph.Identity{Name: "version", Captured: true}
			lint    = graph.Identity{Name: "lint"}
			test    = graph.Identity{Name: "test"}
			status  = runner.Status{
				Stages: [][]graph.Identity{{build, version}, {lint}, {test}},
				Tasks: map[graph.Identity]runner.TaskStatus{
					build:   runner.TaskStatusDone,
					version: runner.TaskStatusSkipped,
					lint:    runner.TaskStatusRunning,
					test:    runner.TaskStatusNotStarted,
				},
			}
		)
		expect := strings.Join([]string{
			"Plan",
			" 1. ✓ build  - version (captured)",
			" 2. * lint",
			" 3. · test",
			"",
		}, "\n")
		assert.Equal(t, expect, render(ascii(), status, "*"))
	})
}

func TestUpdate(t *testing.T) {
	var (
		id    = graph.Identity{Name: "build"}
		calls = 0
		m     = &model{
			renderer: ascii(),
			status: func() runner.Status {
				calls++
				return runner.Status{
					Stages: [][]graph.Identity{{id}},
					Tasks:  map[graph.Identity]runner.TaskStatus{id: runner.TaskStatusFailed},
				}
			},
		}
	)
	m.Init()

	_, cmd := m.Update(msgPoll{})
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.View(), "✗ build")

	_, cmd = m.Update(msgDone{})
	assert.True(t, m.done)
	assert.Equal(t, 2, calls)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
