package cmdline

import (
	"regexp"
	"unicode"
)

const (
	paramInitChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
	paramChars     = paramInitChars + "0123456789"
	lineBreakChars = "\r\n\f\v"
)

// Dialect selects the line separators and glob syntax of the grammar.
type Dialect struct {
	Name           string
	LineSeparators string
	glob           globGrammar
}

var (
	// Shell is the dialect of shell tasks: lines end at any line break or
	// ';', and bracket groups follow bash.
	Shell = Dialect{
		Name:           "shell",
		LineSeparators: lineBreakChars + ";",
		glob:           bashGlob{},
	}

	// Cmd is the dialect of cmd tasks: only ';' ends a line, so a command
	// may span several lines, and bracket groups follow path globbing.
	Cmd = Dialect{
		Name:           "cmd",
		LineSeparators: ";",
		glob:           pathGlob{},
	}
)

// GlobPattern returns the regexp that detects glob syntax in substituted
// parameter values.
func (d Dialect) GlobPattern() *regexp.Regexp {
	if d.glob == nil {
		return pathGlobPattern
	}
	return d.glob.pattern()
}

type globGrammar interface {
	// parse reads a glob at the cursor, which must be positioned at one of
	// '*', '?' or '['. When no glob is found, every consumed rune is pushed
	// back and ok is false.
	parse(c *Cursor) (g *Glob, ok bool, err error)
	pattern() *regexp.Regexp
}

var (
	bashGlobPattern = regexp.MustCompile(`(?P<simple>[\?\*])|(?P<complex>\[(?:\!?\](?:[^\s\]\\]|\\.)*|(?:[^\s\]\\]|\\.)+)\])`)
	pathGlobPattern = regexp.MustCompile(`(?P<simple>[\?\*])|(?P<complex>\[\!?\]?[^\]]*\])`)
)

type bashGlob struct{}

func (bashGlob) pattern() *regexp.Regexp { return bashGlobPattern }

func (bashGlob) parse(c *Cursor) (*Glob, bool, error) {
	if r, _ := c.Peek(); r == '*' || r == '?' {
		c.Take()
		return &Glob{Pattern: string(r)}, true, nil
	}

	c.Take()
	var group []rune
	for {
		r, ok := c.Take()
		if !ok {
			break
		}
		if unicode.IsSpace(r) {
			group = append(group, r)
			break
		}
		if r == ']' && len(group) > 0 && !(len(group) == 1 && group[0] == '!') {
			return &Glob{Pattern: "[" + string(group) + "]"}, true, nil
		}
		if r == '\\' {
			escaped, ok := c.Take()
			if !ok {
				return nil, false, parseErrorf(c, "Invalid pattern: unexpected end of input after backslash")
			}
			r = escaped
		}
		group = append(group, r)
	}

	c.Pushback(append([]rune{'['}, group...)...)
	return nil, false, nil
}

type pathGlob struct{}

func (pathGlob) pattern() *regexp.Regexp { return pathGlobPattern }

func (pathGlob) parse(c *Cursor) (*Glob, bool, error) {
	if r, _ := c.Peek(); r == '*' || r == '?' {
		c.Take()
		return &Glob{Pattern: string(r)}, true, nil
	}

	c.Take()
	var group []rune
	for {
		r, ok := c.Take()
		if !ok {
			break
		}
		if r == ']' && len(group) > 0 && !(len(group) == 1 && group[0] == '!') {
			return &Glob{Pattern: "[" + string(group) + "]"}, true, nil
		}
		group = append(group, r)
	}

	c.Pushback(append([]rune{'['}, group...)...)
	return nil, false, nil
}
