package taskfile_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/amonks/chore/cmdline"
	"github.com/amonks/chore/internal/script"
	"github.com/amonks/chore/taskfile"
	"github.com/amonks/chore/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	for _, dir := range []string{"testdata/toml", "testdata/yaml"} {
		t.Run(dir, func(t *testing.T) {
			path, err := taskfile.Find(dir)
			require.NoError(t, err)

			f, err := taskfile.Load(path)
			require.NoError(t, err)

			abs, _ := filepath.Abs(dir)
			assert.Equal(t, abs, f.Dir)

			assert.Equal(t, []tasks.EnvVar{
				{Key: "GREETING", Value: "hello"},
				{Key: "TARGET", Value: "${GREETING} world"},
			}, f.Env)

			lib := f.Library
			assert.Equal(t, []string{"fmt", "version", "test", "check", "all", "os", "release", "_private"}, lib.Names())

			assert.Equal(t, &tasks.Spec{Name: "fmt", Kind: tasks.KindCmd, Content: "gofmt -l ."}, lib.Task("fmt"))

			version := lib.Task("version")
			assert.Equal(t, tasks.KindShell, version.Kind)
			assert.Equal(t, []script.Interpreter{script.Bash, script.Posix}, version.Interpreter)

			test := lib.Task("test")
			assert.Equal(t, &tasks.Spec{
				Name:      "test",
				Kind:      tasks.KindCmd,
				Content:   "go test ${PKG:-./...}",
				Help:      "Run the tests",
				Deps:      []string{"fmt"},
				Uses:      []tasks.Use{{Key: "VERSION", Invocation: "version"}},
				Env:       []tasks.EnvVar{{Key: "CGO_ENABLED", Value: "0"}},
				Cwd:       ".",
				EmptyGlob: cmdline.EmptyGlobFail,
				Watch:     []string{"**/*.go"},
			}, test)

			check := lib.Task("check")
			assert.Equal(t, tasks.KindSequence, check.Kind)
			assert.Equal(t, tasks.IgnoreFailReturnNonZero, check.IgnoreFail)
			require.Len(t, check.Subtasks, 3)
			assert.Equal(t, &tasks.Spec{Name: "fmt", Kind: tasks.KindRef, Content: "fmt"}, check.Subtasks[0])
			assert.Equal(t, &tasks.Spec{Name: "test", Kind: tasks.KindRef, Content: "test"}, check.Subtasks[1])
			assert.Equal(t, &tasks.Spec{
				Name:        "check[2]",
				Kind:        tasks.KindShell,
				Content:     "echo done",
				Interpreter: []script.Interpreter{script.Posix},
			}, check.Subtasks[2])

			all := lib.Task("all")
			assert.Equal(t, tasks.KindParallel, all.Kind)
			assert.Equal(t, "{name}", all.Prefix)
			assert.Equal(t, 12, all.PrefixMax)
			assert.Nil(t, all.PrefixColor)
			assert.Len(t, all.Subtasks, 2)

			os := lib.Task("os")
			assert.Equal(t, tasks.KindSwitch, os.Kind)
			assert.True(t, os.DefaultPass)
			assert.Equal(t, &tasks.Spec{Name: "os[__control__]", Kind: tasks.KindCmd, Content: "uname"}, os.Control)
			require.Len(t, os.Cases, 2)
			assert.Equal(t, []string{"Linux"}, os.Cases[0].Values)
			assert.Equal(t, "os[Linux]", os.Cases[0].Task.Name)
			assert.Equal(t, []string{"Darwin", "FreeBSD"}, os.Cases[1].Values)
			assert.Equal(t, "os[Darwin,FreeBSD]", os.Cases[1].Task.Name)
			assert.Equal(t, "echo bsd", os.Cases[1].Task.Content)

			assert.Equal(t, tasks.KindRef, lib.Task("release").Kind)
			assert.Equal(t, tasks.KindScript, lib.Task("_private").Kind)

			var visible []string
			for _, s := range lib.Visible() {
				visible = append(visible, s.Name)
			}
			assert.NotContains(t, visible, "_private")
			assert.Equal(t, []string{"**/*.go"}, lib.Subtree("all").Watches())
		})
	}
}

func TestFind(t *testing.T) {
	_, err := taskfile.Find("testdata/empty")
	assert.ErrorIs(t, err, taskfile.ErrNotFound)

	_, err = taskfile.Load("testdata/toml/chore.json")
	assert.EqualError(t, err, `unsupported task file "testdata/toml/chore.json", expected a .toml, .yaml or .yml file`)
}

func TestParse(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		f, err := taskfile.Parse(nil, taskfile.TOML)
		require.NoError(t, err)
		assert.Equal(t, 0, f.Library.Size())

		f, err = taskfile.Parse([]byte(""), taskfile.YAML)
		require.NoError(t, err)
		assert.Equal(t, 0, f.Library.Size())
	})

	t.Run("default types", func(t *testing.T) {
		f, err := taskfile.Parse([]byte(`
default_task_type = "shell"
default_array_task_type = "parallel"
default_array_item_task_type = "cmd"
shell_interpreter = "bash"

[tasks]
a = "echo a"
b = ["echo b", ["echo c", "echo d"]]
`), taskfile.TOML)
		require.NoError(t, err)

		a := f.Library.Task("a")
		assert.Equal(t, tasks.KindShell, a.Kind)
		assert.Equal(t, []script.Interpreter{script.Bash}, a.Interpreter)

		b := f.Library.Task("b")
		assert.Equal(t, tasks.KindParallel, b.Kind)
		require.Len(t, b.Subtasks, 2)
		assert.Equal(t, tasks.KindCmd, b.Subtasks[0].Kind)
		assert.Equal(t, tasks.KindSequence, b.Subtasks[1].Kind)
		assert.Equal(t, "echo b", b.Subtasks[0].Name)
		assert.Equal(t, "b[1]", b.Subtasks[1].Name)
		assert.Equal(t, "echo c", b.Subtasks[1].Subtasks[0].Name)
	})

	t.Run("default item type", func(t *testing.T) {
		f, err := taskfile.Parse([]byte(`
tasks:
  seq:
    sequence: [echo 1, echo 2]
    default_item_type: cmd
    ignore_fail: true
`), taskfile.YAML)
		require.NoError(t, err)
		seq := f.Library.Task("seq")
		assert.Equal(t, tasks.IgnoreFailReturnZero, seq.IgnoreFail)
		assert.Equal(t, tasks.KindCmd, seq.Subtasks[1].Kind)
		assert.Equal(t, "echo 2", seq.Subtasks[1].Content)
	})

	t.Run("default switch case", func(t *testing.T) {
		f, err := taskfile.Parse([]byte(`
[tasks.sw]
control = "uname"
switch = [{ case = 1, cmd = "echo one" }, { cmd = "echo other" }]
`), taskfile.TOML)
		require.NoError(t, err)
		sw := f.Library.Task("sw")
		assert.Equal(t, []string{"1"}, sw.Cases[0].Values)
		assert.True(t, sw.Cases[1].Default)
		assert.Equal(t, "sw[__default__]", sw.Cases[1].Task.Name)
	})
}

func TestValidation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		toml   string
		task   string
		expect string
	}{
		{
			name:   "bad task name",
			toml:   "[tasks]\n\"-bad\" = \"true\"",
			task:   "-bad",
			expect: "Invalid task name '-bad': task names must start with a letter, digit or underscore, and contain only word characters, '-', '+' and ':'",
		},
		{
			name:   "unknown global option",
			toml:   "colour = true",
			expect: "Unrecognized global option 'colour'",
		},
		{
			name:   "no kind",
			toml:   "[tasks.a]\nhelp = \"x\"",
			task:   "a",
			expect: "Task 'a' must include exactly one task type key from: cmd, shell, script, ref, sequence, parallel, switch",
		},
		{
			name:   "two kinds",
			toml:   "[tasks.a]\ncmd = \"x\"\nshell = \"y\"",
			task:   "a",
			expect: "Task 'a' includes more than one task type key: cmd, shell",
		},
		{
			name:   "unknown option",
			toml:   "[tasks.a]\ncmd = \"x\"\ninterpreter = \"bash\"",
			task:   "a",
			expect: "Task 'a' has unrecognized option 'interpreter' for cmd tasks",
		},
		{
			name:   "unknown dep",
			toml:   "[tasks.a]\ncmd = \"x\"\ndeps = [\"b --flag\"]",
			task:   "a",
			expect: "Task 'a' depends on unknown task 'b'",
		},
		{
			name:   "unknown use",
			toml:   "[tasks.a]\ncmd = \"x\"\nuses = { B = \"b\" }",
			task:   "a",
			expect: "Task 'a' uses unknown task 'b'",
		},
		{
			name:   "unknown ref in a sequence",
			toml:   "[tasks]\na = [\"b\"]",
			task:   "a",
			expect: "Task 'a' references unknown task 'b'",
		},
		{
			name:   "bad ignore_fail",
			toml:   "[tasks.a]\nsequence = [{cmd = \"x\"}]\nignore_fail = \"sometimes\"",
			task:   "a",
			expect: `Task 'a' has unsupported value sometimes for option "ignore_fail", expected true, false, "return_zero" or "return_non_zero"`,
		},
		{
			name:   "bad empty_glob",
			toml:   "[tasks.a]\ncmd = \"x\"\nempty_glob = \"maybe\"",
			task:   "a",
			expect: "Task 'a' has invalid value for option 'empty_glob': maybe",
		},
		{
			name:   "bad interpreter",
			toml:   "[tasks.a]\nshell = \"x\"\ninterpreter = \"tcsh\"",
			task:   "a",
			expect: `Invalid value for option 'interpreter': unsupported interpreter "tcsh", expected one of posix, sh, bash, zsh, fish, pwsh, powershell, python`,
		},
		{
			name:   "bad switch default",
			toml:   "[tasks.a]\ncontrol = \"x\"\ndefault = \"skip\"\nswitch = [{case = \"1\", cmd = \"y\"}]",
			task:   "a",
			expect: `Switch task 'a' has invalid value for option 'default': skip, expected "pass" or "fail"`,
		},
		{
			name:   "duplicate case",
			toml:   "[tasks.a]\ncontrol = \"x\"\nswitch = [{case = \"1\", cmd = \"y\"}, {case = [\"2\", \"1\"], cmd = \"z\"}]",
			task:   "a",
			expect: "Switch task 'a' includes more than one case for value '1'",
		},
		{
			name:   "two default cases",
			toml:   "[tasks.a]\ncontrol = \"x\"\nswitch = [{cmd = \"y\"}, {cmd = \"z\"}]",
			task:   "a",
			expect: "Switch task 'a' includes more than one default case",
		},
		{
			name:   "default case with default pass",
			toml:   "[tasks.a]\ncontrol = \"x\"\ndefault = \"pass\"\nswitch = [{cmd = \"y\"}]",
			task:   "a",
			expect: `Switch task 'a' should not have a default case because it sets default = "pass"`,
		},
		{
			name:   "composite control",
			toml:   "[tasks.a]\ncontrol = { sequence = [{cmd = \"x\"}] }\nswitch = [{cmd = \"y\"}]",
			task:   "a",
			expect: "Switch task 'a' has a control task of unsupported type 'sequence', expected one of cmd, shell or script",
		},
		{
			name:   "captured parallel",
			toml:   "[tasks.a]\nparallel = [{cmd = \"x\"}]\ncapture_stdout = true",
			task:   "a",
			expect: "Parallel task 'a' does not support option 'capture_stdout'",
		},
		{
			name:   "empty sequence",
			toml:   "[tasks]\na = []",
			task:   "a",
			expect: "Sequence task 'a' must have at least one subtask",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := taskfile.Parse([]byte(tc.toml), taskfile.TOML)
			require.Error(t, err)
			assert.EqualError(t, err, tc.expect)

			var verr *taskfile.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.task, verr.Task)
		})
	}
}
