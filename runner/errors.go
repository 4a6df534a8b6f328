package runner

import (
	"fmt"
	"strings"

	"github.com/amonks/chore/tasks"
)

// ExecutionError reports a task that could not run to completion. Task is
// the task that gave up, which is not necessarily the one that failed.
type ExecutionError struct {
	Task string
	Msg  string
}

func (e *ExecutionError) Error() string {
	return e.Msg
}

func executionError(task, f string, args ...any) error {
	return &ExecutionError{Task: task, Msg: fmt.Sprintf(f, args...)}
}

func noArguments(s *tasks.Spec) error {
	kind := s.Kind.String()
	return executionError(s.Name, "%s task '%s' does not accept arguments", strings.ToUpper(kind[:1])+kind[1:], s.Name)
}

// nonZero reports the subtasks that failed under ignore_fail =
// "return_non_zero".
func nonZero(task string, failed []string) error {
	quoted := make([]string, len(failed))
	for i, name := range failed {
		quoted[i] = "'" + name + "'"
	}
	plural := ""
	if len(failed) > 1 {
		plural = "s"
	}
	return executionError(task, "Subtask%s %s returned non-zero exit status", plural, strings.Join(quoted, ", "))
}
