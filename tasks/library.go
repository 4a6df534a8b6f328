package tasks

import (
	"sort"
)

// A Library is an opaque data structure representing an immutable, ordered
// collection of task [Spec]s.
type Library struct {
	names []string
	tasks map[string]*Spec

	watchset map[string]struct{}
}

// NewLibrary creates a Library with the given tasks in it. Later tasks with
// a duplicate name are ignored.
func NewLibrary(specs ...*Spec) Library {
	lib := Library{tasks: map[string]*Spec{}}
	for _, s := range specs {
		if _, isDuplicate := lib.tasks[s.Name]; isDuplicate {
			continue
		}
		lib.names = append(lib.names, s.Name)
		lib.tasks[s.Name] = s
	}
	lib.materializeWatchset()
	return lib
}

// Names returns, in order, the task names present in the Library.
func (lib Library) Names() []string { return lib.names }

// Task returns the task with the given name, or nil if there is no such task.
func (lib Library) Task(name string) *Spec { return lib.tasks[name] }

// Size returns the number of unique tasks in the library.
func (lib Library) Size() int {
	return len(lib.names)
}

// Has returns true if the library contains a task with the given name.
func (lib Library) Has(name string) bool {
	_, has := lib.tasks[name]
	return has
}

// Visible returns, in order, the tasks that may be invoked directly.
func (lib Library) Visible() []*Spec {
	var specs []*Spec
	for _, name := range lib.names {
		if t := lib.tasks[name]; !t.Hidden() {
			specs = append(specs, t)
		}
	}
	return specs
}

// Watches returns, in alphabetical order, the complete set of file watches
// present among the tasks. To find the watches implicated by a particular task
// and the tasks it runs, call Subtree first.
func (lib Library) Watches() []string {
	var watches []string
	for w := range lib.watchset {
		watches = append(watches, w)
	}
	sort.Strings(watches)
	return watches
}

// Subtree returns a new Library containing only the given tasks and every
// task they reference through deps, uses, refs and subtasks, preserving the
// canonical order.
func (lib Library) Subtree(names ...string) Library {
	include := map[string]struct{}{}
	stack := append([]string{}, names...)
	for i := 0; i < len(stack); i++ {
		name := stack[i]
		t := lib.Task(name)
		if t == nil {
			continue
		}
		if _, seen := include[name]; seen {
			continue
		}
		include[name] = struct{}{}
		stack = append(stack, References(t)...)
	}
	subtree := Library{tasks: map[string]*Spec{}}
	for _, name := range lib.names {
		if _, isIncluded := include[name]; isIncluded {
			subtree.names = append(subtree.names, name)
			subtree.tasks[name] = lib.Task(name)
		}
	}
	subtree.materializeWatchset()
	return subtree
}

// References returns the names of the tasks that s refers to, directly or
// through its inline subtasks.
func References(s *Spec) []string {
	var refs []string
	var walk func(s *Spec)
	walk = func(s *Spec) {
		if s == nil {
			return
		}
		for _, d := range s.Deps {
			refs = append(refs, InvocationName(d))
		}
		for _, u := range s.Uses {
			refs = append(refs, InvocationName(u.Invocation))
		}
		if s.Kind == KindRef {
			refs = append(refs, InvocationName(s.Content))
		}
		for _, sub := range s.Subtasks {
			walk(sub)
		}
		walk(s.Control)
		for _, c := range s.Cases {
			walk(c.Task)
		}
	}
	walk(s)
	return refs
}

// materializeWatchset computes and stores lib.watchset. It is not threadsafe,
// so it must be called before handing a Library to the user.
func (lib *Library) materializeWatchset() {
	if lib.watchset != nil {
		return
	}
	watchset := map[string]struct{}{}
	for _, t := range lib.tasks {
		for _, w := range t.Watch {
			watchset[w] = struct{}{}
		}
	}
	lib.watchset = watchset
}
