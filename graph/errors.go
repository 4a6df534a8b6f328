package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycle       = errors.New("cyclic task dependency")
	ErrUnknownTask = errors.New("unknown task")
)

// Error reports a graph that cannot be built. Kind is one of the sentinel
// errors above, so callers can test it with errors.Is.
type Error struct {
	Kind error
	Task string
	Msg  string

	// path is the chain of dependants, sink first, that led to Task.
	path []string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Task)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

// Path renders the chain of dependants that led to the failing task, for
// example "build -> test -> build".
func (e *Error) Path() string {
	return strings.Join(append(append([]string{}, e.path...), e.Task), " -> ")
}

func cycleError(task string, path []string) error {
	return &Error{
		Kind: ErrCycle,
		Task: task,
		Msg:  fmt.Sprintf("Encountered cyclic task dependency at %s", task),
		path: path,
	}
}

// UnknownTaskError is returned by upstream lookups for a task name that is
// not defined.
func UnknownTaskError(name string) error {
	return &Error{
		Kind: ErrUnknownTask,
		Task: name,
		Msg:  fmt.Sprintf("Unrecognized task %q", name),
	}
}
