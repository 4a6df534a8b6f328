package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/amonks/chore/cmdline"
	"github.com/amonks/chore/internal/process"
	"github.com/amonks/chore/taskrun"
	"github.com/amonks/chore/tasks"
)

// leaf runs a cmd, shell or script task as a single process.
func (r *Runner) leaf(ctx context.Context, run *taskrun.Run, j job) error {
	dir, err := r.workdir(j)
	if err != nil {
		return err
	}

	var (
		argv   []string
		stdin  = r.opts.Stdin
		action string
	)
	switch j.spec.Kind {
	case tasks.KindShell:
		if len(j.inv.Args) > 0 {
			return noArguments(j.spec)
		}
		argv, err = r.locator.Command(j.spec.Interpreter)
		if err != nil {
			return executionError(j.spec.Name, "%s", err)
		}
		stdin = strings.NewReader(j.spec.Content)
		action = strings.TrimSpace(j.spec.Content)
	default:
		argv, err = r.commandLine(j, dir)
		if err != nil {
			return err
		}
		action = strings.Join(argv, " ")
	}

	r.ui.Action(action, j.out.capture != nil, r.opts.DryRun)
	if r.opts.DryRun {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := process.Start(process.Spec{
		Argv:   argv,
		Dir:    dir,
		Env:    j.env.Environ(),
		Stdin:  stdin,
		Stdout: j.out.stdout,
		Stderr: j.out.stderr,
	})
	if err != nil {
		return executionError(j.spec.Name, "%s", err)
	}
	run.AddProcess(p, true)
	if r.opts.Shutdown != nil {
		defer r.opts.Shutdown.Track(p)()
	}

	code, _ := p.Wait()
	r.ui.Debug("%s exited with status %d", j.spec.Name, code)
	return nil
}

// commandLine parses and resolves the content of a cmd or script task into
// argv, expanding globs in dir. Invocation arguments are appended as is.
func (r *Runner) commandLine(j job, dir string) ([]string, error) {
	script, err := cmdline.Parse(j.spec.Content, cmdline.Cmd)
	if err != nil {
		return nil, fmt.Errorf("invalid %s task '%s': %w", j.spec.Kind, j.spec.Name, err)
	}
	tokens := cmdline.Resolve(script.CommandLines(), j.env.Map(), cmdline.Cmd)
	argv, err := cmdline.Expand(dir, tokens, j.spec.EmptyGlob)
	if err != nil {
		return nil, executionError(j.spec.Name, "%s", err)
	}
	if len(argv) == 0 {
		return nil, executionError(j.spec.Name, "Task '%s' has no command to run", j.spec.Name)
	}
	if j.spec.Kind == tasks.KindScript && !filepath.IsAbs(argv[0]) {
		argv[0] = filepath.Join(r.opts.Dir, argv[0])
	}
	return append(argv, j.inv.Args...), nil
}
