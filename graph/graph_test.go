package graph_test

import (
	"errors"
	"testing"

	"github.com/amonks/chore/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type task string

func (t task) Name() string { return string(t) }

// deps maps a task to its upstream: plain names are deps, "KEY=name" is a
// captured use.
type deps map[string][]string

func (d deps) upstream(t graph.Task) ([]graph.Edge, error) {
	var edges []graph.Edge
	for _, spec := range d[t.Name()] {
		key, name := "", spec
		for i := range spec {
			if spec[i] == '=' {
				key, name = spec[:i], spec[i+1:]
			}
		}
		if name == "missing" {
			return nil, graph.UnknownTaskError(name)
		}
		edges = append(edges, graph.Edge{Key: key, Task: task(name)})
	}
	return edges, nil
}

func names(plan [][]graph.Task) [][]string {
	out := make([][]string, len(plan))
	for i, stage := range plan {
		for _, t := range stage {
			name := t.Name()
			if graph.IsCaptured(t) {
				name += "*"
			}
			out[i] = append(out[i], name)
		}
	}
	return out
}

func TestPlan(t *testing.T) {
	t.Run("no upstream", func(t *testing.T) {
		g, err := graph.Build(task("a"), deps{}.upstream)
		require.NoError(t, err)
		assert.False(t, g.HasUpstream())
		assert.Equal(t, [][]string{{"a"}}, names(g.Plan()))
	})

	t.Run("chain", func(t *testing.T) {
		var (
			d = deps{"c": {"b"}, "b": {"a"}}
		)
		g, err := graph.Build(task("c"), d.upstream)
		require.NoError(t, err)
		assert.True(t, g.HasUpstream())
		assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, names(g.Plan()))
	})

	t.Run("diamond", func(t *testing.T) {
		var (
			d = deps{
				"top":   {"left", "right"},
				"left":  {"base"},
				"right": {"base"},
			}
		)
		g, err := graph.Build(task("top"), d.upstream)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"base"}, {"left", "right"}, {"top"}}, names(g.Plan()))
	})

	t.Run("dependant waits for its slowest dependency", func(t *testing.T) {
		var (
			d = deps{
				"sink": {"mid", "base"},
				"mid":  {"base"},
			}
		)
		g, err := graph.Build(task("sink"), d.upstream)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"base"}, {"mid"}, {"sink"}}, names(g.Plan()))
	})

	t.Run("captured and uncaptured nodes are distinct", func(t *testing.T) {
		var (
			d = deps{
				"sink":  {"build", "VERSION=version", "other"},
				"other": {"V=version"},
				"build": {"version"},
			}
		)
		g, err := graph.Build(task("sink"), d.upstream)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"version", "version*"},
			{"build", "other"},
			{"sink"},
		}, names(g.Plan()))
	})

	t.Run("sources are deduplicated", func(t *testing.T) {
		var (
			d = deps{
				"sink": {"a", "b"},
				"a":    {"x"},
				"b":    {"x"},
			}
		)
		g, err := graph.Build(task("sink"), d.upstream)
		require.NoError(t, err)
		plan := names(g.Plan())
		assert.Equal(t, []string{"x"}, plan[0])
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		var (
			d = deps{"a": {"b"}, "b": {"c"}, "c": {"a"}}
		)
		_, err := graph.Build(task("a"), d.upstream)
		assert.ErrorIs(t, err, graph.ErrCycle)
		assert.EqualError(t, err, "Encountered cyclic task dependency at a")

		var gerr *graph.Error
		require.True(t, errors.As(err, &gerr))
		assert.Equal(t, "a -> b -> c -> a", gerr.Path())
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := graph.Build(task("a"), deps{"a": {"a"}}.upstream)
		assert.ErrorIs(t, err, graph.ErrCycle)
	})

	t.Run("unknown upstream", func(t *testing.T) {
		_, err := graph.Build(task("a"), deps{"a": {"b"}, "b": {"missing"}}.upstream)
		assert.ErrorIs(t, err, graph.ErrUnknownTask)
		assert.EqualError(t, err, `Unrecognized task "missing"`)
	})
}
