package runner

import (
	"fmt"
	"strings"

	"github.com/amonks/chore/tasks"
	"mvdan.cc/sh/v3/shell"
)

const (
	// EnvActive names the task a process belongs to.
	EnvActive = "CHORE_ACTIVE"
	// EnvRoot is the directory of the task file.
	EnvRoot = "CHORE_ROOT"
)

// Env is an ordered set of environment variables. Later layers override
// earlier ones in place.
type Env struct {
	keys []string
	vals map[string]string
}

// NewEnv reads an environment in the "KEY=value" form of os.Environ.
func NewEnv(environ []string) *Env {
	e := &Env{vals: map[string]string{}}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		e.Set(k, v)
	}
	return e
}

func (e *Env) Clone() *Env {
	c := &Env{
		keys: append([]string(nil), e.keys...),
		vals: make(map[string]string, len(e.vals)),
	}
	for k, v := range e.vals {
		c.vals[k] = v
	}
	return c
}

func (e *Env) Set(key, value string) {
	if _, exists := e.vals[key]; !exists {
		e.keys = append(e.keys, key)
	}
	e.vals[key] = value
}

// Get returns the value of key, or "" if it is unset.
func (e *Env) Get(key string) string {
	return e.vals[key]
}

func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.vals[key]
	return v, ok
}

// Expand substitutes $VAR and ${VAR} references in s.
func (e *Env) Expand(s string) (string, error) {
	if !strings.ContainsRune(s, '$') {
		return s, nil
	}
	return shell.Expand(s, e.Get)
}

// Apply layers vars over the environment, in order. Each value is expanded
// against the environment as it stands when the variable is set.
func (e *Env) Apply(vars []tasks.EnvVar) error {
	for _, v := range vars {
		value, err := e.Expand(v.Value)
		if err != nil {
			return fmt.Errorf("invalid value for environment variable %s: %w", v.Key, err)
		}
		e.Set(v.Key, value)
	}
	return nil
}

// Map returns a copy of the environment as a map.
func (e *Env) Map() map[string]string {
	m := make(map[string]string, len(e.vals))
	for k, v := range e.vals {
		m[k] = v
	}
	return m
}

// Environ returns the environment in "KEY=value" form, in order.
func (e *Env) Environ() []string {
	out := make([]string, len(e.keys))
	for i, k := range e.keys {
		out[i] = k + "=" + e.vals[k]
	}
	return out
}
