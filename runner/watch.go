package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amonks/chore/internal/ui"
	"github.com/amonks/chore/internal/watcher"
	"github.com/amonks/chore/tasks"
)

var ErrNoWatches = errors.New("nothing to watch")

// Watch runs inv, then runs it again whenever a file matching the watch
// patterns of inv's task, or of any task it runs, changes. A change during
// a run cancels it first. report receives the outcome of every run that is
// not canceled. Watch returns once ctx is canceled.
func (r *Runner) Watch(ctx context.Context, inv tasks.Invocation, report func(code int, err error)) error {
	patterns := r.library.Subtree(inv.Name).Watches()
	if len(patterns) == 0 {
		return fmt.Errorf("%w: task '%s' has no watch patterns", ErrNoWatches, inv.Name)
	}

	changes := make(chan []watcher.EventInfo)
	for _, pattern := range patterns {
		c, stop, err := watcher.Watch(r.opts.Dir, pattern)
		if err != nil {
			return fmt.Errorf("file watch error: %w", err)
		}
		defer stop()
		r.ui.Debug("watching %s", pattern)

		go func() {
			for evs := range c {
				select {
				case changes <- evs:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			code, err := r.Run(runCtx, inv)
			if runCtx.Err() == nil {
				report(code, err)
			}
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return ctx.Err()

		case evs := <-changes:
			paths := make([]string, len(evs))
			for i, ev := range evs {
				paths[i] = ev.Path
			}
			r.ui.Msg(ui.LevelMsg, "%s changed, running %s again", strings.Join(paths, ", "), inv)
			cancel()
			<-done
		}
	}
}
