package runner

import (
	"context"
	"errors"
	"slices"

	"github.com/amonks/chore/graph"
	"github.com/amonks/chore/internal/printer"
	"github.com/amonks/chore/taskrun"
	"github.com/amonks/chore/tasks"
	"golang.org/x/sync/errgroup"
)

// ref runs the task named by the content of a ref task, with the ref's
// arguments appended.
func (r *Runner) ref(ctx context.Context, run *taskrun.Run, j job) error {
	target, err := tasks.ParseInvocation(j.spec.Content, j.env.Get)
	if err != nil {
		return err
	}
	target.Args = append(target.Args, j.inv.Args...)

	spec := r.library.Task(target.Name)
	if spec == nil {
		return graph.UnknownTaskError(target.Name)
	}
	if slices.Contains(j.refs, target.Name) {
		return executionError(j.spec.Name, "Encountered cyclic task reference at %s", target.Name)
	}

	child, err := r.child(ctx, run, job{
		spec: spec,
		inv:  target,
		env:  j.env,
		out:  j.out,
		refs: append(slices.Clone(j.refs), j.spec.Name),
	})
	if err != nil {
		return err
	}
	child.Wait(true)
	if child.HasFailure() {
		return child.Err()
	}
	return nil
}

func (r *Runner) subtask(j job, sub *tasks.Spec, out output) job {
	return job{
		spec: sub,
		inv:  tasks.Invocation{Name: sub.Name},
		env:  j.env,
		out:  out,
		refs: j.refs,
	}
}

// sequence runs subtasks one at a time, in order.
func (r *Runner) sequence(ctx context.Context, run *taskrun.Run, j job) error {
	if len(j.inv.Args) > 0 {
		return noArguments(j.spec)
	}
	if j.spec.IgnoreFail == tasks.IgnoreFailReturnZero {
		run.IgnoreFailure()
	}

	var failed []string
	for _, sub := range j.spec.Subtasks {
		child, err := r.child(ctx, run, r.subtask(j, sub, j.out))
		if err != nil {
			return err
		}
		child.Wait(true)
		if err := ctx.Err(); err != nil {
			return err
		}
		if !child.HasFailure() {
			continue
		}

		err = child.Err()
		if j.spec.IgnoreFail == tasks.IgnoreFailNever {
			if err != nil {
				return err
			}
			return executionError(j.spec.Name, "Sequence aborted after failed subtask '%s'", sub.Name)
		}
		if err != nil {
			r.ui.Warning("%s", err)
		}
		failed = append(failed, sub.Name)
	}

	if len(failed) > 0 && j.spec.IgnoreFail == tasks.IgnoreFailReturnNonZero {
		return nonZero(j.spec.Name, failed)
	}
	return nil
}

// parallel starts every subtask at once, prefixing each line of their
// output with the subtask's name.
func (r *Runner) parallel(ctx context.Context, run *taskrun.Run, j job) error {
	if len(j.inv.Args) > 0 {
		return noArguments(j.spec)
	}
	if j.spec.IgnoreFail == tasks.IgnoreFailReturnZero {
		run.IgnoreFailure()
	}

	var (
		subtasks = j.spec.Subtasks
		prefixes = make([]string, len(subtasks))
		width    = 0
		limit    = j.spec.PrefixMax
		colored  = r.ui.Colored() && (j.spec.PrefixColor == nil || *j.spec.PrefixColor)
	)
	if limit == 0 {
		limit = printer.DefaultMax
	}
	for i, sub := range subtasks {
		prefixes[i] = printer.Prefix(j.spec.Prefix, sub.Name, i, limit)
		width = max(width, len([]rune(prefixes[i])))
	}
	var (
		stdout = printer.New(j.out.stdout, r.ui.Renderer(), width, colored)
		stderr = printer.New(j.out.stderr, r.ui.Renderer(), width, colored)

		children = make([]*taskrun.Run, len(subtasks))
		finished = make(chan int, len(subtasks))
		g        errgroup.Group
	)
	for i, sub := range subtasks {
		g.Go(func() error {
			var (
				o = stdout.Writer(prefixes[i], i)
				e = stderr.Writer(prefixes[i], i)
			)
			child, err := r.child(ctx, run, r.subtask(j, sub, output{stdout: o, stderr: e}))
			if err != nil {
				return err
			}
			children[i] = child
			child.OnDone(func(taskrun.Event) {
				o.Flush()
				e.Flush()
				finished <- i
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, c := range children {
			if c != nil {
				c.Kill()
			}
		}
		return err
	}

	var failed []string
	for range subtasks {
		var i int
		select {
		case <-ctx.Done():
			return ctx.Err()
		case i = <-finished:
		}

		child, name := children[i], subtasks[i].Name
		if !child.HasFailure() {
			continue
		}
		if err := child.Err(); err != nil && !errors.Is(err, context.Canceled) {
			r.ui.Warning("Parallel subtask '%s' failed with exception: %s", name, err)
		} else {
			r.ui.Warning("Parallel subtask '%s' failed with non-zero exit status", name)
		}

		if j.spec.IgnoreFail == tasks.IgnoreFailNever {
			for _, other := range children {
				if other != child {
					other.Kill()
				}
			}
			return executionError(j.spec.Name, "Parallel task '%s' aborted after failed subtask '%s'", j.spec.Name, name)
		}
		failed = append(failed, name)
	}

	if len(failed) > 0 && j.spec.IgnoreFail == tasks.IgnoreFailReturnNonZero {
		return nonZero(j.spec.Name, failed)
	}
	return nil
}

// switchTask runs the control task captured, then the case matching its
// output.
func (r *Runner) switchTask(ctx context.Context, run *taskrun.Run, j job) error {
	if len(j.inv.Args) > 0 {
		return noArguments(j.spec)
	}

	control := r.subtask(j, j.spec.Control, j.out.captured())
	child, err := r.child(ctx, run, control)
	if err != nil {
		return err
	}
	child.Wait(true)
	if err := ctx.Err(); err != nil {
		return err
	}
	if child.HasFailure() {
		return executionError(j.spec.Name, "Switch task '%s' aborted after failed control task", j.spec.Name)
	}

	if r.opts.DryRun {
		r.ui.Action("unresolved case for switch task", false, true)
		return nil
	}

	value := collapse(control.out.capture.String())
	match := r.match(j.spec, value)
	if match == nil {
		if j.spec.DefaultPass {
			r.ui.Debug("no case of %s matches '%s'", j.spec.Name, value)
			return nil
		}
		return executionError(j.spec.Name, "Control value '%s' did not match any cases in switch task '%s'.", value, j.spec.Name)
	}

	child, err = r.child(ctx, run, r.subtask(j, match, j.out))
	if err != nil {
		return err
	}
	child.Wait(true)
	if child.HasFailure() {
		return child.Err()
	}
	return nil
}

func (r *Runner) match(s *tasks.Spec, value string) *tasks.Spec {
	var fallback *tasks.Spec
	for _, c := range s.Cases {
		if c.Default {
			fallback = c.Task
			continue
		}
		if slices.Contains(c.Values, value) {
			return c.Task
		}
	}
	return fallback
}
