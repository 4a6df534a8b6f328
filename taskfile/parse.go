package taskfile

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/amonks/chore/cmdline"
	"github.com/amonks/chore/internal/script"
	"github.com/amonks/chore/tasks"
)

var (
	taskNameRe = regexp.MustCompile(`^\w[\w\-+:]*$`)
	envNameRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

var globalOptions = []string{
	"env",
	"tasks",
	"default_task_type",
	"default_array_task_type",
	"default_array_item_task_type",
	"shell_interpreter",
}

var commonOptions = []string{"help", "deps", "uses", "env", "cwd", "capture_stdout", "watch"}

var kindOptions = map[tasks.Kind][]string{
	tasks.KindCmd:      {"empty_glob"},
	tasks.KindScript:   {"empty_glob"},
	tasks.KindShell:    {"interpreter"},
	tasks.KindRef:      nil,
	tasks.KindSequence: {"ignore_fail", "default_item_type"},
	tasks.KindParallel: {"ignore_fail", "default_item_type", "prefix", "prefix_max", "prefix_color"},
	tasks.KindSwitch:   {"control", "default"},
}

type parser struct {
	defaultKind      tasks.Kind
	defaultArrayKind tasks.Kind
	defaultItemKind  tasks.Kind
	interpreter      []script.Interpreter
}

func build(root *table) (*File, error) {
	for _, k := range root.keys {
		if !slices.Contains(globalOptions, k) {
			return nil, invalid("", "Unrecognized global option '%s'", k)
		}
	}

	p := &parser{
		defaultKind:      tasks.KindCmd,
		defaultArrayKind: tasks.KindSequence,
		defaultItemKind:  tasks.KindRef,
		interpreter:      []script.Interpreter{script.Posix},
	}
	for key, dst := range map[string]*tasks.Kind{
		"default_task_type":            &p.defaultKind,
		"default_array_task_type":      &p.defaultArrayKind,
		"default_array_item_task_type": &p.defaultItemKind,
	} {
		v, ok := root.get(key)
		if !ok {
			continue
		}
		k, err := kindOption("", key, v)
		if err != nil {
			return nil, err
		}
		*dst = k
	}
	if !p.defaultKind.TakesString() || !p.defaultItemKind.TakesString() {
		return nil, invalid("", "default_task_type and default_array_item_task_type must be one of cmd, shell, script or ref")
	}
	if p.defaultArrayKind != tasks.KindSequence && p.defaultArrayKind != tasks.KindParallel {
		return nil, invalid("", "default_array_task_type must be sequence or parallel")
	}
	if v, ok := root.get("shell_interpreter"); ok {
		in, err := interpreterOption("", v)
		if err != nil {
			return nil, err
		}
		p.interpreter = in
	}

	f := &File{}
	if v, ok := root.get("env"); ok {
		env, err := envOption("", "env", v)
		if err != nil {
			return nil, err
		}
		f.Env = env
	}

	var specs []*tasks.Spec
	if v, ok := root.get("tasks"); ok {
		defs, ok := v.(*table)
		if !ok {
			return nil, invalid("", "Expected 'tasks' to be a table of task definitions")
		}
		for _, name := range defs.keys {
			if !taskNameRe.MatchString(name) {
				return nil, invalid(name, "Invalid task name '%s': task names must start with a letter, digit or underscore, and contain only word characters, '-', '+' and ':'", name)
			}
			spec, err := p.task(name, defs.values[name], p.defaultKind, p.defaultArrayKind)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}

	f.Library = tasks.NewLibrary(specs...)
	if err := validateReferences(f.Library); err != nil {
		return nil, err
	}
	return f, nil
}

// task parses a task definition: a string of the given default kind, a
// list of subtasks of the given list kind, or a table.
func (p *parser) task(name string, def any, stringKind, listKind tasks.Kind) (*tasks.Spec, error) {
	switch def := def.(type) {
	case string:
		s := &tasks.Spec{Name: name, Kind: stringKind, Content: def}
		if stringKind == tasks.KindShell {
			s.Interpreter = p.interpreter
		}
		return s, nil
	case []any:
		s := &tasks.Spec{Name: name, Kind: listKind}
		return s, p.subtasks(s, def, p.defaultItemKind)
	case *table:
		return p.table(name, def)
	}
	return nil, invalid(name, "Task '%s' has an invalid definition: expected a string, a list or a table", name)
}

func (p *parser) table(name string, def *table, extra ...string) (*tasks.Spec, error) {
	var found []tasks.Kind
	for _, k := range tasks.Kinds() {
		if def.has(k.String()) {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return nil, invalid(name, "Task '%s' must include exactly one task type key from: %s", name, kindList())
	case 1:
	default:
		var keys []string
		for _, k := range found {
			keys = append(keys, k.String())
		}
		return nil, invalid(name, "Task '%s' includes more than one task type key: %s", name, strings.Join(keys, ", "))
	}

	kind := found[0]
	for _, key := range def.keys {
		switch {
		case key == kind.String(),
			slices.Contains(commonOptions, key),
			slices.Contains(kindOptions[kind], key),
			slices.Contains(extra, key):
			continue
		}
		return nil, invalid(name, "Task '%s' has unrecognized option '%s' for %s tasks", name, key, kind)
	}

	s := &tasks.Spec{Name: name, Kind: kind}
	if err := p.common(s, def); err != nil {
		return nil, err
	}

	content := def.values[kind.String()]
	switch kind {
	case tasks.KindCmd, tasks.KindShell, tasks.KindScript, tasks.KindRef:
		str, ok := content.(string)
		if !ok {
			return nil, invalid(name, "Task '%s' must have a string value for '%s'", name, kind)
		}
		if kind == tasks.KindRef && strings.TrimSpace(str) == "" {
			return nil, invalid(name, "Task '%s' must reference a task", name)
		}
		s.Content = str

	case tasks.KindSequence, tasks.KindParallel:
		items, ok := content.([]any)
		if !ok {
			return nil, invalid(name, "Task '%s' must have a list value for '%s'", name, kind)
		}
		itemKind := p.defaultItemKind
		if v, ok := def.get("default_item_type"); ok {
			k, err := kindOption(name, "default_item_type", v)
			if err != nil {
				return nil, err
			}
			if !k.TakesString() {
				return nil, invalid(name, "Task '%s' has unsupported default_item_type '%s', expected one of cmd, shell, script or ref", name, k)
			}
			itemKind = k
		}
		if err := p.subtasks(s, items, itemKind); err != nil {
			return nil, err
		}

	case tasks.KindSwitch:
		if err := p.switchTask(s, def); err != nil {
			return nil, err
		}
	}

	switch kind {
	case tasks.KindCmd, tasks.KindScript:
		if v, ok := def.get("empty_glob"); ok {
			str, ok := v.(string)
			policy, err := cmdline.ParseEmptyGlob(str)
			if !ok || err != nil {
				return nil, invalid(name, "Task '%s' has invalid value for option 'empty_glob': %v", name, v)
			}
			s.EmptyGlob = policy
		}

	case tasks.KindShell:
		s.Interpreter = p.interpreter
		if v, ok := def.get("interpreter"); ok {
			in, err := interpreterOption(name, v)
			if err != nil {
				return nil, err
			}
			s.Interpreter = in
		}

	case tasks.KindParallel:
		if s.CaptureStdout {
			return nil, invalid(name, "Parallel task '%s' does not support option 'capture_stdout'", name)
		}
		if v, ok := def.get("prefix"); ok {
			str, ok := v.(string)
			if !ok {
				return nil, invalid(name, "Task '%s' option 'prefix' must be a string", name)
			}
			s.Prefix = str
		}
		if v, ok := def.get("prefix_max"); ok {
			n, ok := v.(int64)
			if !ok || n < 1 {
				return nil, invalid(name, "Task '%s' option 'prefix_max' must be a positive integer", name)
			}
			s.PrefixMax = int(n)
		}
		if v, ok := def.get("prefix_color"); ok {
			b, ok := v.(bool)
			if !ok {
				return nil, invalid(name, "Task '%s' option 'prefix_color' must be true or false", name)
			}
			s.PrefixColor = &b
		}
	}

	if kind == tasks.KindSequence || kind == tasks.KindParallel {
		v, _ := def.get("ignore_fail")
		policy, err := tasks.ParseIgnoreFail(v)
		if err != nil {
			return nil, invalid(name, "Task '%s' has %v", name, err)
		}
		s.IgnoreFail = policy
	}

	return s, nil
}

// common parses the options every kind of task accepts.
func (p *parser) common(s *tasks.Spec, def *table) error {
	name := s.Name
	if v, ok := def.get("help"); ok {
		str, ok := v.(string)
		if !ok {
			return invalid(name, "Task '%s' option 'help' must be a string", name)
		}
		s.Help = str
	}
	if v, ok := def.get("deps"); ok {
		deps, err := stringList(name, "deps", v)
		if err != nil {
			return err
		}
		s.Deps = deps
	}
	if v, ok := def.get("uses"); ok {
		uses, ok := v.(*table)
		if !ok {
			return invalid(name, "Task '%s' option 'uses' must be a table of environment variable names to task invocations", name)
		}
		for _, key := range uses.keys {
			if !envNameRe.MatchString(key) {
				return invalid(name, "Task '%s' uses option has invalid environment variable name '%s'", name, key)
			}
			inv, ok := uses.values[key].(string)
			if !ok {
				return invalid(name, "Task '%s' uses option '%s' must be a task invocation string", name, key)
			}
			s.Uses = append(s.Uses, tasks.Use{Key: key, Invocation: inv})
		}
	}
	if v, ok := def.get("env"); ok {
		env, err := envOption(name, "env", v)
		if err != nil {
			return err
		}
		s.Env = env
	}
	if v, ok := def.get("cwd"); ok {
		str, ok := v.(string)
		if !ok {
			return invalid(name, "Task '%s' option 'cwd' must be a string", name)
		}
		s.Cwd = str
	}
	if v, ok := def.get("capture_stdout"); ok {
		b, ok := v.(bool)
		if !ok {
			return invalid(name, "Task '%s' option 'capture_stdout' must be true or false", name)
		}
		s.CaptureStdout = b
	}
	if v, ok := def.get("watch"); ok {
		watch, err := stringList(name, "watch", v)
		if err != nil {
			return err
		}
		s.Watch = watch
	}
	return nil
}

// subtasks parses the items of a sequence or parallel task. String items
// are named by their content, as in "test -v". A list item is itself a group
// of the opposite kind.
func (p *parser) subtasks(s *tasks.Spec, items []any, itemKind tasks.Kind) error {
	nested := tasks.KindParallel
	if s.Kind == tasks.KindParallel {
		nested = tasks.KindSequence
	}
	for i, item := range items {
		name := tasks.SubtaskName(s.Name, i)
		if str, ok := item.(string); ok {
			name = str
		}
		sub, err := p.task(name, item, itemKind, nested)
		if err != nil {
			return err
		}
		s.Subtasks = append(s.Subtasks, sub)
	}
	if len(s.Subtasks) == 0 {
		return invalid(s.Name, "%s task '%s' must have at least one subtask", capitalize(s.Kind.String()), s.Name)
	}
	return nil
}

func (p *parser) switchTask(s *tasks.Spec, def *table) error {
	name := s.Name

	control, ok := def.get("control")
	if !ok {
		return invalid(name, "Switch task '%s' must have a 'control' task", name)
	}
	ctl, err := p.task(tasks.ControlName(name), control, p.defaultKind, p.defaultArrayKind)
	if err != nil {
		return err
	}
	if !ctl.Kind.Leaf() {
		return invalid(name, "Switch task '%s' has a control task of unsupported type '%s', expected one of cmd, shell or script", name, ctl.Kind)
	}
	s.Control = ctl

	if v, ok := def.get("default"); ok {
		switch v {
		case "pass":
			s.DefaultPass = true
		case "fail":
		default:
			return invalid(name, `Switch task '%s' has invalid value for option 'default': %v, expected "pass" or "fail"`, name, v)
		}
	}

	items, ok := def.values[tasks.KindSwitch.String()].([]any)
	if !ok {
		return invalid(name, "Switch task '%s' must have a list of cases for 'switch'", name)
	}
	seen := map[string]struct{}{}
	hasDefault := false
	for i, item := range items {
		caseDef, ok := item.(*table)
		if !ok {
			return invalid(name, "Switch task '%s' case %d must be a table", name, i)
		}

		c := tasks.Case{}
		if v, ok := caseDef.get("case"); ok {
			values, err := caseValues(name, v)
			if err != nil {
				return err
			}
			c.Values = values
		}
		if len(c.Values) == 0 || slices.Contains(c.Values, tasks.DefaultCase) {
			c.Default = true
			c.Values = []string{tasks.DefaultCase}
		}

		if c.Default {
			if hasDefault {
				return invalid(name, "Switch task '%s' includes more than one default case", name)
			}
			if s.DefaultPass {
				return invalid(name, `Switch task '%s' should not have a default case because it sets default = "pass"`, name)
			}
			hasDefault = true
		} else {
			for _, v := range c.Values {
				if _, dup := seen[v]; dup {
					return invalid(name, "Switch task '%s' includes more than one case for value '%s'", name, v)
				}
				seen[v] = struct{}{}
			}
		}

		task, err := p.table(tasks.CaseName(name, c.Values), caseDef, "case")
		if err != nil {
			return err
		}
		c.Task = task
		s.Cases = append(s.Cases, c)
	}
	if len(s.Cases) == 0 {
		return invalid(name, "Switch task '%s' must have at least one case", name)
	}
	return nil
}

// validateReferences checks that every deps, uses and ref invocation names
// a task in the library. Names that are templated are not checked.
func validateReferences(lib tasks.Library) error {
	var walk func(owner string, s *tasks.Spec) error
	walk = func(owner string, s *tasks.Spec) error {
		if s == nil {
			return nil
		}
		check := func(inv, verb string) error {
			target := tasks.InvocationName(inv)
			if target == "" || strings.Contains(target, "$") || lib.Has(target) {
				return nil
			}
			return invalid(owner, "Task '%s' %s unknown task '%s'", owner, verb, target)
		}
		for _, d := range s.Deps {
			if err := check(d, "depends on"); err != nil {
				return err
			}
		}
		for _, u := range s.Uses {
			if err := check(u.Invocation, "uses"); err != nil {
				return err
			}
		}
		if s.Kind == tasks.KindRef {
			if err := check(s.Content, "references"); err != nil {
				return err
			}
		}
		for _, sub := range s.Subtasks {
			if err := walk(owner, sub); err != nil {
				return err
			}
		}
		if err := walk(owner, s.Control); err != nil {
			return err
		}
		for _, c := range s.Cases {
			if err := walk(owner, c.Task); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range lib.Names() {
		if err := walk(name, lib.Task(name)); err != nil {
			return err
		}
	}
	return nil
}

func kindOption(task, key string, v any) (tasks.Kind, error) {
	str, _ := v.(string)
	k, err := tasks.ParseKind(str)
	if err != nil {
		return 0, invalid(task, "Invalid value for option '%s': %v, expected one of %s", key, v, kindList())
	}
	return k, nil
}

func interpreterOption(task string, v any) ([]script.Interpreter, error) {
	names, err := stringList(task, "interpreter", v)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, invalid(task, "Option 'interpreter' must name at least one interpreter")
	}
	var out []script.Interpreter
	for _, n := range names {
		in, err := script.ParseInterpreter(n)
		if err != nil {
			return nil, invalid(task, "Invalid value for option 'interpreter': %v", err)
		}
		out = append(out, in)
	}
	return out, nil
}

func envOption(task, key string, v any) ([]tasks.EnvVar, error) {
	t, ok := v.(*table)
	if !ok {
		return nil, invalid(task, "Option '%s' must be a table of environment variables", key)
	}
	var env []tasks.EnvVar
	for _, k := range t.keys {
		if !envNameRe.MatchString(k) {
			return nil, invalid(task, "Invalid environment variable name '%s'", k)
		}
		switch val := t.values[k].(type) {
		case string:
			env = append(env, tasks.EnvVar{Key: k, Value: val})
		case bool, int64, float64:
			env = append(env, tasks.EnvVar{Key: k, Value: fmt.Sprint(val)})
		default:
			return nil, invalid(task, "Environment variable '%s' must be a string", k)
		}
	}
	return env, nil
}

// stringList accepts a string or a list of strings.
func stringList(task, key string, v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, invalid(task, "Option '%s' must be a string or a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, invalid(task, "Option '%s' must be a string or a list of strings", key)
}

// caseValues accepts a scalar or a list of scalars. Numbers and booleans
// match their textual form.
func caseValues(task string, v any) ([]string, error) {
	scalar := func(v any) (string, bool) {
		switch v := v.(type) {
		case string:
			return v, true
		case bool, int64, float64:
			return fmt.Sprint(v), true
		}
		return "", false
	}
	if s, ok := scalar(v); ok {
		return []string{s}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, invalid(task, "Switch task '%s' has an invalid case value: %v", task, v)
	}
	var out []string
	for _, el := range list {
		s, ok := scalar(el)
		if !ok {
			return nil, invalid(task, "Switch task '%s' has an invalid case value: %v", task, el)
		}
		out = append(out, s)
	}
	return out, nil
}

func kindList() string {
	var names []string
	for _, k := range tasks.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
