// Package runner executes the tasks of a [tasks.Library]. Run plans the
// dependencies of an invocation with [graph], runs the plan stage by stage,
// and dispatches every task to the executor for its kind.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amonks/chore/graph"
	"github.com/amonks/chore/internal/mutex"
	"github.com/amonks/chore/internal/safebuffer"
	"github.com/amonks/chore/internal/script"
	"github.com/amonks/chore/internal/shutdown"
	"github.com/amonks/chore/internal/ui"
	"github.com/amonks/chore/taskrun"
	"github.com/amonks/chore/tasks"
)

type Options struct {
	// Dir is the task file's directory. Working directories and script
	// paths are relative to it.
	Dir string

	// Env is the task file's global environment, layered over Environ.
	Env []tasks.EnvVar
	// Environ is the inherited environment. Nil means os.Environ().
	Environ []string

	// DryRun prints what would run without starting any process.
	DryRun bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// UI prints actions, warnings and debug messages. It defaults to a
	// printer on Stderr.
	UI *ui.Printer

	// Shutdown, if set, is told about every process the runner starts and
	// every run in progress.
	Shutdown *shutdown.Coordinator

	// Interpreters locates shell task interpreters. The zero value uses
	// script.System.
	Interpreters script.Locator
}

type Runner struct {
	library tasks.Library
	opts    Options
	ui      *ui.Printer
	locator script.Locator

	// Take mu to touch stages, status, outputs or completed.
	mu        *mutex.Mutex
	stages    [][]graph.Identity
	status    map[graph.Identity]TaskStatus
	outputs   map[string]string
	completed map[string]struct{}
}

func New(lib tasks.Library, opts Options) *Runner {
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.UI == nil {
		opts.UI = ui.New(opts.Stderr, 0)
	}
	locator := opts.Interpreters
	if locator.LookPath == nil {
		locator = script.System()
	}
	return &Runner{
		library: lib,
		opts:    opts,
		ui:      opts.UI,
		locator: locator,

		mu:        mutex.New("runner"),
		status:    map[graph.Identity]TaskStatus{},
		outputs:   map[string]string{},
		completed: map[string]struct{}{},
	}
}

func (r *Runner) Library() tasks.Library {
	return r.library
}

// Run runs inv after everything it depends on, and returns the invoked
// task's return code. Errors that stop the run are returned rather than
// printed. Warnings about ignored failures are printed as they happen.
//
// Canceling ctx kills every running task; Run then returns ctx.Err().
func (r *Runner) Run(ctx context.Context, inv tasks.Invocation) (int, error) {
	spec := r.library.Task(inv.Name)
	if spec == nil {
		return 1, graph.UnknownTaskError(inv.Name)
	}
	if spec.Hidden() {
		return 1, executionError(inv.Name, "Tried to run private task '%s'", inv.Name)
	}

	env := NewEnv(r.opts.Environ)
	if err := env.Apply(r.opts.Env); err != nil {
		return 1, err
	}
	env.Set(EnvRoot, r.opts.Dir)

	g, err := graph.Build(task{spec, inv}, r.upstream(env))
	if err != nil {
		return 1, err
	}
	plan := g.Plan()
	r.reset(plan)

	root := taskrun.New(inv.String(), func(ctx context.Context, run *taskrun.Run) error {
		return r.execute(ctx, run, plan, env, r.stdio(), nil)
	})
	if r.opts.Shutdown != nil {
		defer r.opts.Shutdown.TrackUnit(root.Unit())()
	}
	defer context.AfterFunc(ctx, root.Kill)()

	root.Wait(true)
	code, _ := root.ReturnCode()
	if root.HasFailure() && code == 0 {
		code = 1
	}
	if err := ctx.Err(); err != nil {
		return code, err
	}
	return code, root.Err()
}

// Status is a snapshot of the most recent plan.
type Status struct {
	// Stages of the invoked task's plan. A task that runs both captured
	// and uncaptured appears twice.
	Stages [][]graph.Identity
	// Tasks holds the status of every planned task, including those
	// planned for referenced tasks and subtasks.
	Tasks map[graph.Identity]TaskStatus
}

func (r *Runner) Status() Status {
	defer r.mu.Lock("Status").Unlock()

	status := Status{
		Stages: make([][]graph.Identity, len(r.stages)),
		Tasks:  make(map[graph.Identity]TaskStatus, len(r.status)),
	}
	for i, stage := range r.stages {
		status.Stages[i] = append([]graph.Identity(nil), stage...)
	}
	for id, s := range r.status {
		status.Tasks[id] = s
	}
	return status
}

//go:generate go run golang.org/x/tools/cmd/stringer -type TaskStatus -linecomment
type TaskStatus int

const (
	taskStatusInvalid    TaskStatus = iota // invalid
	TaskStatusNotStarted                   // not started
	TaskStatusRunning                      // running
	TaskStatusDone                         // done
	TaskStatusFailed                       // failed
	TaskStatusSkipped                      // skipped
	TaskStatusCanceled                     // canceled
)

// task is the graph payload: a task and the invocation that names it.
// Invocations with different arguments are different graph nodes.
type task struct {
	spec *tasks.Spec
	inv  tasks.Invocation
}

func (t task) Name() string { return t.inv.String() }

func identity(t graph.Task) graph.Identity {
	return graph.Identity{Name: t.Name(), Captured: graph.IsCaptured(t)}
}

// upstream resolves deps and uses, templated against env.
func (r *Runner) upstream(env *Env) graph.UpstreamFunc {
	return func(t graph.Task) ([]graph.Edge, error) {
		spec := t.(task).spec
		edges := make([]graph.Edge, 0, len(spec.Deps)+len(spec.Uses))
		for _, dep := range spec.Deps {
			e, err := r.edge("", dep, env)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
		}
		for _, use := range spec.Uses {
			e, err := r.edge(use.Key, use.Invocation, env)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
		}
		return edges, nil
	}
}

func (r *Runner) edge(key, invocation string, env *Env) (graph.Edge, error) {
	inv, err := tasks.ParseInvocation(invocation, env.Get)
	if err != nil {
		return graph.Edge{}, err
	}
	spec := r.library.Task(inv.Name)
	if spec == nil {
		return graph.Edge{}, graph.UnknownTaskError(inv.Name)
	}
	return graph.Edge{Key: key, Task: task{spec, inv}}, nil
}

type (
	msgRunStage int
	msgTaskExit struct {
		stage int
		task  graph.Task
		job   job
		run   *taskrun.Run
	}
)

// execute runs plan, attaching the run of every task to parent, and returns
// once the sink is done. The tasks of a stage run concurrently; the next
// stage starts once they have all succeeded.
func (r *Runner) execute(ctx context.Context, parent *taskrun.Run, plan [][]graph.Task, env *Env, out output, refs []string) error {
	var (
		input   = make(chan any)
		done    = make(chan struct{})
		running = map[*taskrun.Run]graph.Task{}
		last    = len(plan) - 1
	)
	defer close(done)
	send := func(msg any) {
		select {
		case input <- msg:
		case <-done:
		}
	}
	stop := func(status TaskStatus) {
		for run, t := range running {
			run.Kill()
			r.setStatus(identity(t), status)
		}
	}

	go send(msgRunStage(0))
	for {
		select {
		case <-ctx.Done():
			r.ui.Debug("run of %s canceled", parent.Name())
			stop(TaskStatusCanceled)
			return ctx.Err()

		case msg := <-input:
			switch msg := msg.(type) {
			case msgRunStage:
				stage := int(msg)
				for _, t := range plan[stage] {
					j, skip := r.planned(t, stage == last, env, out, refs)
					if skip {
						r.ui.Debug("skipping %s, it already ran", t.Name())
						r.setStatus(identity(t), TaskStatusSkipped)
						continue
					}
					run, err := r.start(parent, j)
					if err != nil {
						stop(TaskStatusCanceled)
						return err
					}
					r.setStatus(identity(t), TaskStatusRunning)
					running[run] = t
					run.OnDone(func(taskrun.Event) {
						send(msgTaskExit{stage: stage, task: t, job: j, run: run})
					})
				}
				if len(running) == 0 {
					if stage == last {
						return nil
					}
					go send(msgRunStage(stage + 1))
				}

			case msgTaskExit:
				delete(running, msg.run)
				name := msg.task.Name()
				failed := msg.run.HasFailure()
				r.record(msg.task, msg.job, failed)

				if msg.stage == last {
					if failed {
						return msg.run.Err()
					}
					return nil
				}
				if failed {
					r.ui.Debug("%s failed, stopping %d other tasks", name, len(running))
					stop(TaskStatusCanceled)
					return executionError(name, "Task graph aborted after failed task '%s'", name)
				}
				if len(running) == 0 {
					go send(msgRunStage(msg.stage + 1))
				}
			}
		}
	}
}

// planned prepares a planned task for execution. The sink writes to out.
// Other tasks are skipped if they already ran in this invocation.
func (r *Runner) planned(t graph.Task, sink bool, env *Env, out output, refs []string) (job, bool) {
	captured := graph.IsCaptured(t)
	if c, ok := t.(graph.CapturedTask); ok {
		t = c.Task
	}
	tk := t.(task)
	j := job{spec: tk.spec, inv: tk.inv, env: env, refs: refs}

	defer r.mu.Lock("planned").Unlock()
	switch {
	case sink:
		j.out = out
	case captured:
		if _, ok := r.outputs[t.Name()]; ok {
			return j, true
		}
		j.out = r.stdio().captured()
	default:
		if _, ok := r.completed[t.Name()]; ok {
			return j, true
		}
		j.out = out
		if out.capture != nil {
			j.out = r.stdio()
		}
	}
	return j, false
}

func (r *Runner) record(t graph.Task, j job, failed bool) {
	defer r.mu.Lock("record").Unlock()

	id := identity(t)
	if failed {
		r.status[id] = TaskStatusFailed
		return
	}
	r.status[id] = TaskStatusDone
	if j.out.capture != nil {
		r.outputs[id.Name] = collapse(j.out.capture.String())
	} else {
		r.completed[id.Name] = struct{}{}
	}
}

func (r *Runner) reset(plan [][]graph.Task) {
	defer r.mu.Lock("reset").Unlock()

	r.stages = make([][]graph.Identity, len(plan))
	r.status = map[graph.Identity]TaskStatus{}
	r.outputs = map[string]string{}
	r.completed = map[string]struct{}{}
	for i, stage := range plan {
		for _, t := range stage {
			id := identity(t)
			r.stages[i] = append(r.stages[i], id)
			r.status[id] = TaskStatusNotStarted
		}
	}
}

func (r *Runner) setStatus(id graph.Identity, s TaskStatus) {
	defer r.mu.Lock("setStatus").Unlock()
	r.status[id] = s
}

func (r *Runner) output(name string) string {
	defer r.mu.Lock("output").Unlock()
	return r.outputs[name]
}

// job is one task to run: its definition, how it was invoked, the
// environment it inherits and where its output goes. refs is the chain of
// ref tasks that led to it.
type job struct {
	spec *tasks.Spec
	inv  tasks.Invocation
	env  *Env
	out  output
	refs []string
}

// output is where a task's output goes. A captured task's stdout is
// collected in capture instead of being printed.
type output struct {
	stdout  io.Writer
	stderr  io.Writer
	capture *safebuffer.Buffer
}

func (o output) captured() output {
	buf := safebuffer.New()
	return output{stdout: buf, stderr: o.stderr, capture: buf}
}

func (r *Runner) stdio() output {
	return output{stdout: r.opts.Stdout, stderr: r.opts.Stderr}
}

// start runs j as a child of parent.
func (r *Runner) start(parent *taskrun.Run, j job) (*taskrun.Run, error) {
	if j.spec.CaptureStdout && j.out.capture == nil {
		j.out = j.out.captured()
	}
	run := taskrun.New(j.spec.Name, func(ctx context.Context, run *taskrun.Run) error {
		env, err := r.environment(j)
		if err != nil {
			return err
		}
		j.env = env

		switch j.spec.Kind {
		case tasks.KindCmd, tasks.KindShell, tasks.KindScript:
			return r.leaf(ctx, run, j)
		case tasks.KindRef:
			return r.ref(ctx, run, j)
		case tasks.KindSequence:
			return r.sequence(ctx, run, j)
		case tasks.KindParallel:
			return r.parallel(ctx, run, j)
		case tasks.KindSwitch:
			return r.switchTask(ctx, run, j)
		}
		return fmt.Errorf("unsupported task kind %s", j.spec.Kind)
	})
	if !parent.TryAddChild(run) {
		run.Kill()
		return nil, context.Canceled
	}
	return run, nil
}

// child runs j as a subtask of parent. A subtask with deps or uses runs
// its own plan.
func (r *Runner) child(ctx context.Context, parent *taskrun.Run, j job) (*taskrun.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(j.spec.Deps) == 0 && len(j.spec.Uses) == 0 {
		return r.start(parent, j)
	}

	g, err := graph.Build(task{j.spec, j.inv}, r.upstream(j.env))
	if err != nil {
		return nil, err
	}
	plan := g.Plan()
	run := taskrun.New(j.spec.Name, func(ctx context.Context, run *taskrun.Run) error {
		return r.execute(ctx, run, plan, j.env, j.out, j.refs)
	})
	if !parent.TryAddChild(run) {
		run.Kill()
		return nil, context.Canceled
	}
	return run, nil
}

// environment layers the task's env and the outputs it uses over the
// environment it inherits.
func (r *Runner) environment(j job) (*Env, error) {
	env := j.env.Clone()
	if err := env.Apply(j.spec.Env); err != nil {
		return nil, fmt.Errorf("task '%s': %w", j.spec.Name, err)
	}
	for _, use := range j.spec.Uses {
		inv, err := tasks.ParseInvocation(use.Invocation, j.env.Get)
		if err != nil {
			return nil, err
		}
		env.Set(use.Key, r.output(inv.String()))
	}
	env.Set(EnvActive, j.spec.Name)
	return env, nil
}

// workdir resolves the task's cwd against the task file's directory.
func (r *Runner) workdir(j job) (string, error) {
	if j.spec.Cwd == "" {
		return r.opts.Dir, nil
	}
	cwd, err := j.env.Expand(j.spec.Cwd)
	if err != nil {
		return "", fmt.Errorf("task '%s' has invalid cwd: %w", j.spec.Name, err)
	}
	if filepath.IsAbs(cwd) {
		return cwd, nil
	}
	return filepath.Join(r.opts.Dir, cwd), nil
}

// collapse trims captured output and joins its whitespace runs with single
// spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
