package taskrun_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/amonks/chore/internal/fixtures"
	"github.com/amonks/chore/taskrun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTime = time.Second

// attach returns a run function that attaches the given processes and then
// returns, finalizing the run.
func attach(ps ...*fixtures.Process) func(context.Context, *taskrun.Run) error {
	return func(_ context.Context, r *taskrun.Run) error {
		for _, p := range ps {
			r.AddProcess(p, false)
		}
		return nil
	}
}

func waitFor(t *testing.T, r *taskrun.Run, suppress bool) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Wait(suppress) }()
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTime):
		t.Fatalf("run %s did not finish", r.Name())
		return nil
	}
}

func TestRun(t *testing.T) {
	t.Run("processes determine the return code", func(t *testing.T) {
		var (
			a = fixtures.NewProcess(1)
			b = fixtures.NewProcess(2)
			r = taskrun.New("task", attach(a, b))
		)
		assert.Eventually(t, func() bool { return len(r.Processes()) == 2 }, waitTime, time.Millisecond)
		a.Exit(0)
		_, ok := r.ReturnCode()
		assert.False(t, ok)

		b.Exit(3)
		require.NoError(t, waitFor(t, r, false))
		code, ok := r.ReturnCode()
		assert.True(t, ok)
		assert.Equal(t, 3, code)
		assert.True(t, r.HasFailure())
		assert.True(t, r.Done())
		assert.True(t, r.Finalized())
	})

	t.Run("ignore failure", func(t *testing.T) {
		var (
			p = fixtures.NewProcess(1)
			r = taskrun.New("task", attach(p))
		)
		r.IgnoreFailure()
		p.Exit(2)
		require.NoError(t, waitFor(t, r, false))
		code, ok := r.ReturnCode()
		assert.True(t, ok)
		assert.Equal(t, 0, code)
		assert.False(t, r.HasFailure())
	})

	t.Run("force failure", func(t *testing.T) {
		r := taskrun.New("task", nil)
		r.ForceFailure()
		require.NoError(t, waitFor(t, r, false))
		code, ok := r.ReturnCode()
		assert.True(t, ok)
		assert.Equal(t, 1, code)
		assert.True(t, r.HasFailure())
	})

	t.Run("function errors fail the run", func(t *testing.T) {
		boom := errors.New("boom")
		r := taskrun.New("task", func(context.Context, *taskrun.Run) error { return boom })
		assert.ErrorIs(t, waitFor(t, r, false), boom)
		assert.NoError(t, waitFor(t, r, true))
		assert.True(t, r.HasFailure())
		assert.ErrorIs(t, r.Err(), boom)
	})

	t.Run("children aggregate", func(t *testing.T) {
		var (
			p1     = fixtures.NewProcess(1)
			p2     = fixtures.NewProcess(2)
			child1 = taskrun.New("child1", attach(p1))
			child2 = taskrun.New("child2", attach(p2))
			parent = taskrun.New("parent", func(_ context.Context, r *taskrun.Run) error {
				r.AddChild(child1)
				r.AddChild(child2)
				return nil
			})
		)
		p1.Exit(1)
		p2.Exit(2)
		require.NoError(t, waitFor(t, parent, false))
		code, ok := parent.ReturnCode()
		assert.True(t, ok)
		assert.Equal(t, 3, code)
		assert.Equal(t, 1, parent.ChildIndex(child2))
		assert.Equal(t, -1, child1.ChildIndex(child2))
		assert.Len(t, parent.Processes(), 2)
	})

	t.Run("child index finds indirect descendants", func(t *testing.T) {
		var (
			grandchild = taskrun.New("grandchild", nil)
			first      = taskrun.New("first", nil)
			second     = taskrun.New("second", func(_ context.Context, r *taskrun.Run) error {
				r.AddChild(grandchild)
				return nil
			})
			root = taskrun.New("root", func(_ context.Context, r *taskrun.Run) error {
				r.AddChild(first)
				r.AddChild(second)
				return nil
			})
			stranger = taskrun.New("stranger", nil)
		)
		require.NoError(t, waitFor(t, root, false))
		require.NoError(t, waitFor(t, second, false))

		assert.Equal(t, 0, root.ChildIndex(first))
		assert.Equal(t, 1, root.ChildIndex(second))
		assert.Equal(t, 1, root.ChildIndex(grandchild))
		assert.Equal(t, 0, second.ChildIndex(grandchild))
		assert.Equal(t, -1, first.ChildIndex(grandchild))
		assert.Equal(t, -1, root.ChildIndex(stranger))
		assert.Equal(t, -1, root.ChildIndex(root))
	})

	t.Run("attaching to a finalized run panics", func(t *testing.T) {
		r := taskrun.New("task", nil)
		r.Finalize()
		assert.PanicsWithValue(t, `cannot add process to finalized run "task"`, func() {
			r.AddProcess(fixtures.NewProcess(1), false)
		})
		assert.PanicsWithValue(t, `cannot add child to finalized run "task"`, func() {
			r.AddChild(taskrun.New("child", nil))
		})
		assert.False(t, r.TryAddChild(taskrun.New("child", nil)))
		assert.Empty(t, r.Children())
	})

	t.Run("add process can finalize", func(t *testing.T) {
		var (
			p       = fixtures.NewProcess(1)
			release = make(chan struct{})
			r       = taskrun.New("task", func(_ context.Context, r *taskrun.Run) error {
				r.AddProcess(p, true)
				<-release
				return nil
			})
		)
		assert.Eventually(t, func() bool { return len(r.Processes()) == 1 }, waitTime, time.Millisecond)
		assert.True(t, r.Finalized())
		assert.False(t, r.Done())
		p.Exit(0)
		assert.True(t, r.Done())
		close(release)
		require.NoError(t, waitFor(t, r, false))
	})

	t.Run("kill", func(t *testing.T) {
		var (
			p     = fixtures.NewProcess(1)
			cp    = fixtures.NewProcess(2)
			child = taskrun.New("child", attach(cp))
			r     = taskrun.New("task", func(ctx context.Context, r *taskrun.Run) error {
				r.AddProcess(p, false)
				r.AddChild(child)
				<-ctx.Done()
				return ctx.Err()
			})
		)
		assert.Eventually(t, func() bool { return len(r.Processes()) == 2 }, waitTime, time.Millisecond)
		r.Kill()
		assert.ErrorIs(t, waitFor(t, r, false), context.Canceled)
		assert.Equal(t, "kill", p.Signals())
		assert.Equal(t, "kill", cp.Signals())
		assert.True(t, r.Done())
	})

	t.Run("a run can kill itself", func(t *testing.T) {
		r := taskrun.New("task", func(ctx context.Context, r *taskrun.Run) error {
			r.Kill()
			<-ctx.Done()
			return ctx.Err()
		})
		assert.NoError(t, waitFor(t, r, true))
		assert.True(t, r.HasFailure())
	})
}

func TestEvents(t *testing.T) {
	t.Run("on done", func(t *testing.T) {
		var (
			p      = fixtures.NewProcess(1)
			r      = taskrun.New("task", attach(p))
			events = make(chan taskrun.Event, 2)
		)
		r.OnDone(func(ev taskrun.Event) { events <- ev })
		cancel := r.OnDone(func(ev taskrun.Event) { events <- ev })
		cancel()

		p.Exit(1)
		select {
		case ev := <-events:
			assert.Equal(t, taskrun.Event{Name: "task", Failed: true}, ev)
		case <-time.After(waitTime):
			t.Fatal("no event")
		}
		assert.Never(t, func() bool { return len(events) > 0 }, 50*time.Millisecond, time.Millisecond)
	})

	t.Run("on done after completion", func(t *testing.T) {
		r := taskrun.New("task", nil)
		require.NoError(t, waitFor(t, r, false))
		events := make(chan taskrun.Event, 1)
		r.OnDone(func(ev taskrun.Event) { events <- ev })
		select {
		case ev := <-events:
			assert.Equal(t, "task: done", ev.String())
		case <-time.After(waitTime):
			t.Fatal("no event")
		}
	})

	t.Run("stream includes children added later", func(t *testing.T) {
		var (
			release = make(chan struct{})
			p       = fixtures.NewProcess(1)
			parent  = taskrun.New("parent", func(_ context.Context, r *taskrun.Run) error {
				r.AddChild(taskrun.New("first", nil))
				<-release
				r.AddChild(taskrun.New("second", attach(p)))
				return nil
			})
			events = parent.Events()
		)
		close(release)
		p.Exit(4)

		var got []string
		for ev := range events {
			got = append(got, ev.String())
		}
		sort.Strings(got)
		assert.Equal(t, []string{"first: done", "parent: failed", "second: failed"}, got)
	})
}
