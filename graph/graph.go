// Package graph builds the dependency graph of a task invocation and derives
// a staged execution plan from it.
//
// The graph has a single sink, the invoked task, and any number of sources,
// tasks with no upstream. A task appears at most twice: once for runs whose
// output is captured (because a dependant uses it) and once for runs whose
// output is not.
package graph

// Task is a node payload. Name identifies the task within the graph.
type Task interface {
	Name() string
}

// Edge is an upstream dependency. Key is empty for plain dependencies, and
// otherwise names the variable that receives the upstream task's captured
// output.
type Edge struct {
	Key  string
	Task Task
}

// Captured reports whether the edge's task must run with captured output.
func (e Edge) Captured() bool { return e.Key != "" }

// UpstreamFunc returns the direct upstream edges of a task.
type UpstreamFunc func(Task) ([]Edge, error)

// Identity distinguishes the captured and uncaptured nodes of one task.
type Identity struct {
	Name     string
	Captured bool
}

type node struct {
	task     Task
	id       Identity
	captured bool

	// path holds the names of this node and every dependant between it
	// and the sink, nearest first.
	path []string

	dependants   []*node
	dependencies map[Identity]struct{}
}

func (n *node) onPath(name string) bool {
	for _, p := range n.path {
		if p == name {
			return true
		}
	}
	return false
}

// Graph is a directed acyclic graph of tasks.
type Graph struct {
	sink       *node
	sources    []*node
	captured   map[string]*node
	uncaptured map[string]*node
	upstream   UpstreamFunc
}

// Build constructs the graph of sink by depth-first traversal of upstream.
// A task that appears among its own dependants yields an *Error of kind
// ErrCycle; errors from upstream are returned as is.
func Build(sink Task, upstream UpstreamFunc) (*Graph, error) {
	g := &Graph{
		captured:   map[string]*node{},
		uncaptured: map[string]*node{},
		upstream:   upstream,
	}
	g.sink = &node{
		task: sink,
		id:   Identity{Name: sink.Name()},
		path: []string{sink.Name()},
	}
	edges, err := upstream(sink)
	if err != nil {
		return nil, err
	}
	if err := g.resolve(g.sink, edges); err != nil {
		return nil, err
	}
	return g, nil
}

// Sink returns the invoked task.
func (g *Graph) Sink() Task { return g.sink.task }

// HasUpstream reports whether the sink depends on anything.
func (g *Graph) HasUpstream() bool { return len(g.sink.dependencies) > 0 }

// IsCaptured reports whether a task in the plan runs with captured output.
// It is meaningful for tasks returned by Plan, which returns each captured
// node's task wrapped in Captured.
func IsCaptured(t Task) bool {
	_, ok := t.(CapturedTask)
	return ok
}

// CapturedTask marks a planned task whose output must be captured.
type CapturedTask struct{ Task }

func (g *Graph) resolve(n *node, edges []Edge) error {
	n.dependencies = make(map[Identity]struct{}, len(edges))
	for _, e := range edges {
		name := e.Task.Name()
		if n.onPath(name) {
			return cycleError(name, reversed(n.path))
		}

		id := Identity{Name: name, Captured: e.Captured()}
		n.dependencies[id] = struct{}{}

		known := g.uncaptured
		if id.Captured {
			known = g.captured
		}
		if existing, ok := known[name]; ok {
			existing.dependants = append(existing.dependants, n)
			continue
		}

		upstream := &node{
			task:       e.Task,
			id:         id,
			captured:   id.Captured,
			path:       append([]string{name}, n.path...),
			dependants: []*node{n},
		}
		known[name] = upstream

		upEdges, err := g.upstream(e.Task)
		if err != nil {
			return err
		}
		if len(upEdges) == 0 {
			upstream.dependencies = map[Identity]struct{}{}
			g.sources = append(g.sources, upstream)
			continue
		}
		if err := g.resolve(upstream, upEdges); err != nil {
			return err
		}
	}
	return nil
}

// Plan returns the stages of execution. The tasks within a stage do not
// depend on each other; every task's dependencies are in earlier stages.
// The sink is alone in the final stage. Tasks that run captured are wrapped
// in CapturedTask.
func (g *Graph) Plan() [][]Task {
	if len(g.sources) == 0 {
		return [][]Task{{g.sink.task}}
	}

	var (
		stages  = [][]*node{g.sources}
		visited = map[Identity]struct{}{}
	)
	for _, n := range g.sources {
		visited[n.id] = struct{}{}
	}
	for {
		var (
			next   []*node
			queued = map[*node]struct{}{}
		)
		for _, n := range stages[len(stages)-1] {
			for _, d := range n.dependants {
				if _, ok := queued[d]; ok {
					continue
				}
				if _, ok := visited[d.id]; ok {
					continue
				}
				if !subset(d.dependencies, visited) {
					continue
				}
				queued[d] = struct{}{}
				next = append(next, d)
			}
		}
		if len(next) == 0 {
			break
		}
		stages = append(stages, next)
		for _, n := range next {
			visited[n.id] = struct{}{}
		}
	}

	plan := make([][]Task, len(stages))
	for i, stage := range stages {
		plan[i] = make([]Task, len(stage))
		for j, n := range stage {
			if n.captured {
				plan[i][j] = CapturedTask{n.task}
			} else {
				plan[i][j] = n.task
			}
		}
	}
	return plan
}

func subset(s, of map[Identity]struct{}) bool {
	for k := range s {
		if _, ok := of[k]; !ok {
			return false
		}
	}
	return true
}

func reversed(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[len(ss)-1-i] = s
	}
	return out
}
