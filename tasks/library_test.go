package tasks_test

import (
	"testing"

	"github.com/amonks/chore/tasks"
	"github.com/stretchr/testify/assert"
)

func cmd(name string) *tasks.Spec {
	return &tasks.Spec{Name: name, Kind: tasks.KindCmd, Content: "echo " + name}
}

func withDeps(s *tasks.Spec, deps ...string) *tasks.Spec {
	s.Deps = deps
	return s
}

func withWatch(s *tasks.Spec, watch ...string) *tasks.Spec {
	s.Watch = watch
	return s
}

func TestNewLibrary(t *testing.T) {
	t.Run("ignores duplicates", func(t *testing.T) {
		ts := tasks.NewLibrary(cmd("root"), cmd("root"))
		assert.Equal(t, []string{"root"}, ts.Names())
		assert.Equal(t, 1, ts.Size())
	})
	t.Run("preserves order", func(t *testing.T) {
		ts := tasks.NewLibrary(cmd("2"), cmd("3"), cmd("1"))
		assert.Equal(t, []string{"2", "3", "1"}, ts.Names())
	})
	t.Run("preserves order with duplicates", func(t *testing.T) {
		ts := tasks.NewLibrary(cmd("2"), cmd("3"), cmd("1"), cmd("1"), cmd("2"), cmd("3"))
		assert.Equal(t, []string{"2", "3", "1"}, ts.Names())
	})
	t.Run("hidden tasks are not visible", func(t *testing.T) {
		ts := tasks.NewLibrary(cmd("a"), cmd("_b"), cmd("c"))
		var names []string
		for _, s := range ts.Visible() {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{"a", "c"}, names)
		assert.True(t, ts.Has("_b"))
	})
}

func TestWatches(t *testing.T) {
	t.Run("removes duplicates", func(t *testing.T) {
		ts := tasks.NewLibrary(
			withWatch(cmd("a"), "f1", "f2", "f3"),
			withWatch(cmd("b"), "f3", "f4", "f5"),
		)
		assert.Equal(t, []string{"f1", "f2", "f3", "f4", "f5"}, ts.Watches())
	})
}

func TestSubtree(t *testing.T) {
	t.Run("deduplicates and preserves order", func(t *testing.T) {
		ts := tasks.NewLibrary(
			cmd("useful"),
			withDeps(cmd("a"), "aa", "ab --flag", "useful"),
			cmd("spam"),
			withDeps(cmd("aa"), "useful", "ab"),
			withDeps(cmd("ab"), "useful"),
		)
		assert.Equal(t, []string{"useful", "a", "aa", "ab"}, ts.Subtree("a").Names())
	})

	t.Run("follows uses, refs and inline subtasks", func(t *testing.T) {
		var (
			version = cmd("version")
			check   = &tasks.Spec{
				Name: "check",
				Kind: tasks.KindSequence,
				Subtasks: []*tasks.Spec{
					{Name: "lint", Kind: tasks.KindRef, Content: "lint --fix"},
					{Name: "check[1]", Kind: tasks.KindShell, Content: "true", Uses: []tasks.Use{{Key: "V", Invocation: "version"}}},
				},
			}
			os = &tasks.Spec{
				Name:    "os",
				Kind:    tasks.KindSwitch,
				Control: &tasks.Spec{Name: "os[__control__]", Kind: tasks.KindCmd, Content: "uname", Deps: []string{"spam"}},
				Cases:   []tasks.Case{{Values: []string{"Linux"}, Task: &tasks.Spec{Kind: tasks.KindRef, Content: "linux"}}},
			}
			ts = tasks.NewLibrary(cmd("spam"), cmd("lint"), version, check, os, cmd("linux"), cmd("unused"))
		)
		assert.Equal(t, []string{"lint", "version", "check"}, ts.Subtree("check").Names())
		assert.Equal(t, []string{"spam", "os", "linux"}, ts.Subtree("os").Names())
	})

	t.Run("subtree watches", func(t *testing.T) {
		ts := tasks.NewLibrary(
			withWatch(withDeps(cmd("a"), "b"), "a.txt"),
			withWatch(cmd("b"), "b.txt"),
			withWatch(cmd("c"), "c.txt"),
		)
		assert.Equal(t, []string{"a.txt", "b.txt"}, ts.Subtree("a").Watches())
	})
}

func TestParseInvocation(t *testing.T) {
	env := map[string]string{"PKG": "./cmd/...", "EMPTY": ""}
	lookup := func(k string) string { return env[k] }

	for _, tc := range []struct {
		in     string
		expect tasks.Invocation
	}{
		{"test", tasks.Invocation{Name: "test", Args: []string{}}},
		{"test -v $PKG", tasks.Invocation{Name: "test", Args: []string{"-v", "./cmd/..."}}},
		{`build "two words" $EMPTY`, tasks.Invocation{Name: "build", Args: []string{"two words"}}},
		{"build ${MISSING:-x}", tasks.Invocation{Name: "build", Args: []string{"x"}}},
	} {
		inv, err := tasks.ParseInvocation(tc.in, lookup)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.expect.Name, inv.Name, tc.in)
		assert.ElementsMatch(t, tc.expect.Args, inv.Args, tc.in)
	}

	_, err := tasks.ParseInvocation("  ", lookup)
	assert.ErrorIs(t, err, tasks.ErrEmptyInvocation)

	inv, _ := tasks.ParseInvocation("test -run X", lookup)
	assert.Equal(t, "test -run X", inv.String())
}

func TestDescription(t *testing.T) {
	assert.Equal(t, `"echo a"`, cmd("a").Description())
	assert.Equal(t, "help", (&tasks.Spec{Kind: tasks.KindCmd, Content: "x", Help: "help"}).Description())
	assert.Equal(t, "", (&tasks.Spec{Kind: tasks.KindShell, Content: "x"}).Description())
}

func TestParseIgnoreFail(t *testing.T) {
	for _, tc := range []struct {
		in     any
		expect tasks.IgnoreFail
	}{
		{nil, tasks.IgnoreFailNever},
		{false, tasks.IgnoreFailNever},
		{true, tasks.IgnoreFailReturnZero},
		{"return_zero", tasks.IgnoreFailReturnZero},
		{"return_non_zero", tasks.IgnoreFailReturnNonZero},
	} {
		got, err := tasks.ParseIgnoreFail(tc.in)
		assert.NoError(t, err)
		assert.Equal(t, tc.expect, got)
	}
	_, err := tasks.ParseIgnoreFail("sometimes")
	assert.Error(t, err)
	assert.Equal(t, "return_non_zero", tasks.IgnoreFailReturnNonZero.String())
}

func TestKind(t *testing.T) {
	k, err := tasks.ParseKind("parallel")
	assert.NoError(t, err)
	assert.Equal(t, tasks.KindParallel, k)
	assert.False(t, k.Leaf())
	assert.True(t, tasks.KindScript.Leaf())
	assert.True(t, tasks.KindRef.TakesString())

	_, err = tasks.ParseKind("expr")
	assert.EqualError(t, err, `unknown task type "expr"`)
}
