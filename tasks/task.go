package tasks

import (
	"fmt"
	"strings"

	"github.com/amonks/chore/cmdline"
	"github.com/amonks/chore/internal/script"
)

// Spec describes a task: everything the runner needs to run it, as loaded
// from a task file. Specs are immutable once loaded.
type Spec struct {
	// Name identifies a task, for example,
	//   - for command line invocation, as in `$ chore <name>`
	//   - in deps, uses and ref invocations.
	//
	// Inline subtasks are named after their parent, as in "check[0]".
	// Names starting with "_" are hidden: they can be used by other tasks
	// but not invoked directly.
	Name string

	Kind Kind

	// Content is the command line (cmd), snippet (shell), script path and
	// arguments (script), or invocation (ref).
	Content string

	// Help is shown by `chore --list`. It can be one line or many lines.
	Help string

	// Deps are invocations of tasks that must succeed before this task
	// runs, as in "build --release". They are templated against the
	// environment.
	Deps []string

	// Uses are invocations of tasks whose captured output is made
	// available to this task as environment variables.
	Uses []Use

	// Env is layered over the environment, in order. Values may reference
	// earlier variables, as in "${HOME}/bin".
	Env []EnvVar

	// Cwd is the working directory, relative to the task file's
	// directory.
	Cwd string

	// CaptureStdout runs the task with its output captured rather than
	// printed.
	CaptureStdout bool

	// Watch lists paths that rerun the task in watch mode. Watch supports
	// globs, and does **not** support the "./..." style typical of Go
	// command line tools.
	//
	// For example,
	//  - `"."` watches for changes to the task file's directory only,
	//    but not changes within subdirectories.
	//  - `"**"` watches for changes at any level within the directory.
	//  - `"./src/website/**/*.js"` watches for changes to javascript
	//    files within src/website.
	Watch []string

	// EmptyGlob applies to cmd and script tasks.
	EmptyGlob cmdline.EmptyGlob

	// Interpreter lists shell task interpreters in order of preference.
	Interpreter []script.Interpreter

	// Subtasks of a sequence or parallel task.
	Subtasks   []*Spec
	IgnoreFail IgnoreFail

	// Prefix options for parallel tasks.
	Prefix      string
	PrefixMax   int
	PrefixColor *bool

	// Control and Cases make up a switch task. With DefaultPass, a control
	// value matching no case is not an error.
	Control     *Spec
	Cases       []Case
	DefaultPass bool
}

type Use struct {
	Key        string
	Invocation string
}

type EnvVar struct {
	Key   string
	Value string
}

// Case is one branch of a switch task.
type Case struct {
	Values  []string
	Default bool
	Task    *Spec
}

// DefaultCase is the case value that marks a default case.
const DefaultCase = "__default__"

// Hidden reports whether the task is private to the task file.
func (s *Spec) Hidden() bool { return strings.HasPrefix(s.Name, "_") }

// Description returns the help text, or for a single-line command, the
// command itself.
func (s *Spec) Description() string {
	if s.Help != "" {
		return s.Help
	}
	if s.Kind == KindCmd && s.Content != "" && !strings.Contains(s.Content, "\n") {
		return fmt.Sprintf(`"%s"`, s.Content)
	}
	return ""
}

// ControlName is the name of a switch task's control subtask.
func ControlName(parent string) string {
	return parent + "[__control__]"
}

// CaseName is the name of a switch case subtask.
func CaseName(parent string, values []string) string {
	return parent + "[" + strings.Join(values, ",") + "]"
}

// SubtaskName is the name of an inline sequence or parallel subtask.
func SubtaskName(parent string, index int) string {
	return fmt.Sprintf("%s[%d]", parent, index)
}
