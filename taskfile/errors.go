package taskfile

import "fmt"

// ValidationError reports a task file that decodes but does not describe
// a valid set of tasks. Task is empty for problems outside any task.
type ValidationError struct {
	Task string
	Msg  string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(task, f string, args ...any) error {
	return &ValidationError{Task: task, Msg: fmt.Sprintf(f, args...)}
}
