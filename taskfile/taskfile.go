// Package taskfile loads chore.toml and chore.yaml files into a
// [tasks.Library].
package taskfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amonks/chore/tasks"
)

// Filenames are the task files Find looks for, in order of preference.
var Filenames = []string{"chore.toml", "chore.yaml", "chore.yml"}

var ErrNotFound = errors.New("no task file found")

// Format is the syntax of a task file.
type Format int

const (
	TOML Format = iota
	YAML
)

func (f Format) String() string {
	switch f {
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks a format by file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("unsupported task file %q, expected a .toml, .yaml or .yml file", path)
}

// File is a loaded task file.
type File struct {
	// Path is the file's location, and Dir is the directory it is in.
	// Task working directories and script paths are relative to Dir.
	Path string
	Dir  string

	// Env is the global environment, in file order.
	Env []tasks.EnvVar

	Library tasks.Library
}

// Find returns the path of the task file in dir.
func Find(dir string) (string, error) {
	for _, name := range Filenames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: looked for %s in %q", ErrNotFound, strings.Join(Filenames, ", "), dir)
}

// Load reads and validates the task file at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path, f.Dir = abs, filepath.Dir(abs)
	return f, nil
}

// Parse decodes and validates a task file. The returned File has no Path
// or Dir.
func Parse(data []byte, format Format) (*File, error) {
	var (
		root *table
		err  error
	)
	switch format {
	case TOML:
		root, err = decodeTOML(data)
	case YAML:
		root, err = decodeYAML(data)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return build(root)
}
