package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amonks/chore/internal/progress"
	"github.com/amonks/chore/internal/shutdown"
	"github.com/amonks/chore/internal/ui"
	"github.com/amonks/chore/runner"
	"github.com/amonks/chore/taskfile"
	"github.com/amonks/chore/tasks"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type flags struct {
	dir  string
	file string
	ui   string

	list   bool
	dryRun bool
	watch  bool

	verbose int
	quiet   int
}

// execute runs the command line args and returns the exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		f    flags
		code int
	)
	cmd := &cobra.Command{
		Use:   "chore [flags] <task> [args...]",
		Short: "Chore runs the tasks defined in chore.toml or chore.yaml.",
		Long: "Chore runs the tasks defined in chore.toml or chore.yaml.\n\n" +
			"Arguments after the task name are passed to the task.",
		Version:       version(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch f.ui {
			case "auto", "plain", "progress":
			default:
				return fmt.Errorf("invalid value %q for --ui, expected auto, plain or progress", f.ui)
			}
			code = run(cmd.Context(), f, args, stdin, stdout, stderr)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.SetInterspersed(false)
	fl.StringVarP(&f.dir, "dir", "C", ".", "Look for the task file in the given directory.")
	fl.StringVarP(&f.file, "file", "f", "", "Load the given task file instead of looking for one.")
	fl.BoolVarP(&f.list, "list", "l", false, "List the tasks and exit.")
	fl.BoolVarP(&f.dryRun, "dry-run", "d", false, "Print the commands that would run without running them.")
	fl.CountVarP(&f.verbose, "verbose", "v", "Print more. Repeat for even more.")
	fl.CountVarP(&f.quiet, "quiet", "q", "Print less. Repeat for even less.")
	fl.StringVar(&f.ui, "ui", "auto", "How to display a run: auto, plain or progress.")
	fl.BoolVarP(&f.watch, "watch", "w", false, "Run the task again whenever a watched file changes.")

	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		ui.New(stderr, 0).Error(err)
		return 1
	}
	return code
}

func run(ctx context.Context, f flags, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	verbosity := f.verbose - f.quiet
	printer := ui.New(stderr, verbosity)
	if active := os.Getenv(runner.EnvActive); active != "" {
		printer.Debug("running within task %s", active)
	}

	file, err := load(f)
	if err != nil {
		printer.Error(err)
		return 1
	}
	printer.Debug("loaded %s", file.Path)

	if f.list || len(args) == 0 {
		fmt.Fprint(stdout, taskList(file.Library, stdout))
		return 0
	}
	inv := tasks.Invocation{Name: args[0], Args: args[1:]}

	coordinator := shutdown.New()
	coordinator.Logf = printer.Debug
	coordinator.Install()
	defer coordinator.Restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer coordinator.TrackUnit(cancelUnit{ctx, cancel})()

	opts := runner.Options{
		Dir:      file.Dir,
		Env:      file.Env,
		DryRun:   f.dryRun,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
		UI:       printer,
		Shutdown: coordinator,
	}

	if f.watch {
		r := runner.New(file.Library, opts)
		err := r.Watch(ctx, inv, func(code int, err error) {
			if err != nil {
				printer.Error(err)
			}
			printer.Debug("%s exited with status %d", inv, code)
		})
		if errors.Is(err, context.Canceled) {
			printer.Debug("Canceled")
			return 130
		}
		printer.Error(err)
		return 1
	}

	var code int
	if useProgress(f, verbosity, stderr) {
		display := progress.New(stderr)
		opts.Stdout = display.Writer()
		opts.Stderr = display.Writer()
		opts.UI = ui.New(display.Writer(), verbosity)
		r := runner.New(file.Library, opts)
		code, err = display.Run(ctx, r.Status, func() (int, error) { return r.Run(ctx, inv) })
	} else {
		code, err = runner.New(file.Library, opts).Run(ctx, inv)
	}
	return exitCode(printer, code, err, coordinator.Urgency() > 0)
}

func load(f flags) (*taskfile.File, error) {
	path := f.file
	if path == "" {
		found, err := taskfile.Find(f.dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	return taskfile.Load(path)
}

// useProgress picks the progress display for --ui=auto when stderr is an
// interactive terminal and nothing asked for plain output.
func useProgress(f flags, verbosity int, stderr io.Writer) bool {
	switch f.ui {
	case "progress":
		return true
	case "plain":
		return false
	}
	if f.dryRun || verbosity != 0 {
		return false
	}
	file, ok := stderr.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// exitCode reports err and picks the process exit code. Return codes above
// 255 do not fit in an exit status, so they are capped.
func exitCode(printer *ui.Printer, code int, err error, signaled bool) int {
	if signaled || errors.Is(err, context.Canceled) {
		printer.Debug("Canceled")
		return 130
	}
	if err != nil {
		printer.Error(err)
		if code == 0 {
			code = 1
		}
	}
	return min(code, 255)
}

// cancelUnit lets the shutdown coordinator cancel the run's context once no
// processes are left to interrupt.
type cancelUnit struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (u cancelUnit) IsDone() bool { return u.ctx.Err() != nil }
func (u cancelUnit) Interrupt()   { u.cancel() }
