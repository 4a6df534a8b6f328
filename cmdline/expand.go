package cmdline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type EmptyGlob -linecomment
type EmptyGlob int

const (
	// EmptyGlobPass keeps a glob that matches nothing as a literal argument.
	EmptyGlobPass EmptyGlob = iota // pass
	// EmptyGlobNull drops a glob that matches nothing.
	EmptyGlobNull // null
	// EmptyGlobFail makes a glob that matches nothing an error.
	EmptyGlobFail // fail
)

// ParseEmptyGlob reads an empty_glob option value.
func ParseEmptyGlob(s string) (EmptyGlob, error) {
	switch s {
	case "", "pass":
		return EmptyGlobPass, nil
	case "null":
		return EmptyGlobNull, nil
	case "fail":
		return EmptyGlobFail, nil
	}
	return 0, fmt.Errorf("invalid empty_glob value %q: expected one of pass, null, fail", s)
}

// Expand returns the arguments described by tokens, replacing each glob
// token with the sorted paths it matches relative to dir.
func Expand(dir string, tokens []Token, policy EmptyGlob) ([]string, error) {
	args := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !t.Glob {
			args = append(args, t.Text)
			continue
		}
		matches, err := MatchFiles(dir, t.Text)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			args = append(args, matches...)
			continue
		}
		switch policy {
		case EmptyGlobPass:
			args = append(args, t.Text)
		case EmptyGlobFail:
			return nil, fmt.Errorf("Glob pattern %q did not match any files in working directory %q", t.Text, dir)
		}
	}
	return args, nil
}

// MatchFiles returns the sorted paths matching pattern. Relative patterns are
// matched under dir and produce relative paths. A "**" segment matches any
// number of directories, and names starting with '.' are only matched by
// segments that start with '.'.
func MatchFiles(dir, pattern string) ([]string, error) {
	root := dir
	if filepath.IsAbs(pattern) {
		root = ""
	}
	segments := strings.Split(filepath.ToSlash(pattern), "/")

	candidates := []string{""}
	if segments[0] == "" {
		candidates = []string{"/"}
		segments = segments[1:]
	}

	for i, seg := range segments {
		last := i == len(segments)-1
		var next []string
		switch {
		case seg == "":
			// "a//b" and trailing slashes: keep directories only.
			for _, c := range candidates {
				if isDir(filepath.Join(root, c)) {
					next = append(next, c)
				}
			}
		case seg == "**":
			for _, c := range candidates {
				found, err := descendants(root, c, !last)
				if err != nil {
					return nil, err
				}
				if !last {
					next = append(next, c)
				}
				next = append(next, found...)
			}
		case !strings.ContainsAny(seg, "*?["):
			for _, c := range candidates {
				p := filepath.Join(c, seg)
				if _, err := os.Lstat(filepath.Join(root, p)); err == nil {
					next = append(next, p)
				}
			}
		default:
			g, err := glob.Compile(translateSegment(seg))
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
			}
			for _, c := range candidates {
				entries, err := os.ReadDir(filepath.Join(root, c))
				if err != nil {
					continue
				}
				for _, e := range entries {
					name := e.Name()
					if isHidden(name) && !strings.HasPrefix(seg, ".") {
						continue
					}
					if g.Match(name) {
						next = append(next, filepath.Join(c, name))
					}
				}
			}
		}
		candidates = next
	}

	sort.Strings(candidates)
	return candidates, nil
}

// descendants lists everything under root/base that is not hidden, depth
// first. With dirsOnly, files are omitted.
func descendants(root, base string, dirsOnly bool) ([]string, error) {
	var found []string
	start := filepath.Join(root, base)
	if !isDir(start) {
		return nil, nil
	}
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		if path == start {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if dirsOnly && !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(start, path)
		if err != nil {
			return err
		}
		found = append(found, filepath.Join(base, rel))
		return nil
	})
	return found, err
}

// translateSegment escapes the characters that gobwas/glob treats as syntax
// but a path glob treats as literals. Bracket groups are passed through.
func translateSegment(seg string) string {
	var b strings.Builder
	inGroup := false
	for _, r := range seg {
		switch {
		case inGroup:
			if r == ']' {
				inGroup = false
			}
		case r == '[':
			inGroup = true
		case r == '{' || r == '}' || r == '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
