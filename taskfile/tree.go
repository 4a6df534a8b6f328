package taskfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// table is a decoded mapping that remembers the order its keys were written
// in. Values are string, bool, int64, float64, nil, []any or *table.
type table struct {
	keys   []string
	values map[string]any
}

func newTable() *table {
	return &table{values: map[string]any{}}
}

func (t *table) get(key string) (any, bool) {
	v, ok := t.values[key]
	return v, ok
}

func (t *table) has(key string) bool {
	_, ok := t.values[key]
	return ok
}

func (t *table) set(key string, v any) {
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// decodeTOML decodes a TOML document, ordering keys as they appear in the
// source.
func decodeTOML(data []byte) (*table, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, err
	}

	order := map[string][]string{}
	seen := map[string]struct{}{}
	for _, key := range md.Keys() {
		if len(key) == 0 {
			continue
		}
		parent := strings.Join(key[:len(key)-1], "\x00")
		full := strings.Join(key, "\x00")
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}
		order[parent] = append(order[parent], key[len(key)-1])
	}

	return fromTOML(raw, nil, order), nil
}

func fromTOML(m map[string]any, path []string, order map[string][]string) *table {
	t := newTable()
	for _, k := range orderedKeys(m, order[strings.Join(path, "\x00")]) {
		t.set(k, fromTOMLValue(m[k], append(path[:len(path):len(path)], k), order))
	}
	return t
}

func fromTOMLValue(v any, path []string, order map[string][]string) any {
	switch v := v.(type) {
	case map[string]any:
		return fromTOML(v, path, order)
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = fromTOML(m, path, order)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = fromTOMLValue(el, path, order)
		}
		return out
	default:
		return v
	}
}

// orderedKeys returns the keys of m, first in the given order and then, for
// any the order does not mention, alphabetically.
func orderedKeys(m map[string]any, order []string) []string {
	keys := make([]string, 0, len(m))
	listed := map[string]struct{}{}
	for _, k := range order {
		if _, ok := m[k]; !ok {
			continue
		}
		if _, dup := listed[k]; dup {
			continue
		}
		listed[k] = struct{}{}
		keys = append(keys, k)
	}
	var rest []string
	for k := range m {
		if _, ok := listed[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// decodeYAML decodes a YAML document through its node tree, so that mapping
// order is kept.
func decodeYAML(data []byte) (*table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return newTable(), nil
	}
	v, err := fromNode(&doc)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *table:
		return v, nil
	case nil:
		return newTable(), nil
	default:
		return nil, fmt.Errorf("task file must contain a mapping at the top level")
	}
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.MappingNode:
		t := newTable()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be strings", key.Line)
			}
			v, err := fromNode(value)
			if err != nil {
				return nil, err
			}
			t.set(key.Value, v)
		}
		return t, nil

	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, el := range n.Content {
			v, err := fromNode(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		if i, ok := v.(int); ok {
			return int64(i), nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}
