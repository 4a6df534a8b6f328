package tasks

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Invocation is a task name followed by arguments, as typed on the command
// line or written in deps, uses and ref.
type Invocation struct {
	Name string
	Args []string
}

var ErrEmptyInvocation = errors.New("empty task invocation")

// ParseInvocation splits s into fields the way a POSIX shell would,
// expanding $VAR and ${VAR} with env. A nil env expands against the
// process environment.
func ParseInvocation(s string, env func(string) string) (Invocation, error) {
	fields, err := shell.Fields(s, env)
	if err != nil {
		return Invocation{}, fmt.Errorf("invalid task invocation %q: %w", s, err)
	}
	if len(fields) == 0 {
		return Invocation{}, ErrEmptyInvocation
	}
	return Invocation{Name: fields[0], Args: fields[1:]}, nil
}

// InvocationName extracts the task name from an invocation without
// expanding anything.
func InvocationName(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (inv Invocation) String() string {
	return strings.Join(append([]string{inv.Name}, inv.Args...), " ")
}
