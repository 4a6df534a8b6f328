package fixtures

import (
	"context"
	"fmt"
	"io"
)

// Task is a scripted function for exercising executors. It logs every step
// to its writer as "! <name>: <step>".
type Task struct {
	name    string
	w       io.Writer
	err     error
	release <-chan error
}

func NewTask(name string, w io.Writer) *Task { return &Task{name: name, w: w} }

// Failing makes the task return err as soon as it starts.
func (t *Task) Failing(err error) *Task { t.err = err; return t }

// Blocking makes the task wait for a value from release, or for
// cancellation.
func (t *Task) Blocking(release <-chan error) *Task { t.release = release; return t }

func (t *Task) Fn() func(context.Context) error {
	return func(ctx context.Context) error {
		t.log("start")
		if t.release == nil {
			return t.exit(t.err)
		}
		select {
		case err := <-t.release:
			return t.exit(err)
		case <-ctx.Done():
			t.log("canceled")
			return ctx.Err()
		}
	}
}

func (t *Task) exit(err error) error {
	if err != nil {
		t.log("failed: " + err.Error())
	} else {
		t.log("done")
	}
	return err
}

func (t *Task) log(step string) {
	fmt.Fprintf(t.w, "! %s: %s\n", t.name, step)
}
