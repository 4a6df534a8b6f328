package cmdline

import (
	"fmt"
	"strings"
)

// Node is any node of a parsed command AST. A node is either a SyntaxNode,
// which only has children, or a ContentNode, which owns a string.
type Node interface {
	node()
}

// SyntaxNode is a branching node.
type SyntaxNode interface {
	Node
	Children() []Node
}

// ContentNode is a terminal node.
type ContentNode interface {
	Node
	Content() string
}

// Element is a ContentNode that can appear inside a Segment.
type Element interface {
	ContentNode
	element()
}

// Script is the root of a parsed command source.
type Script struct {
	Lines []*Line
}

// CommandLines returns the lines that have at least one word.
func (s *Script) CommandLines() []*Line {
	var lines []*Line
	for _, l := range s.Lines {
		if len(l.Words) > 0 {
			lines = append(lines, l)
		}
	}
	return lines
}

func (s *Script) Children() []Node {
	ns := make([]Node, len(s.Lines))
	for i, l := range s.Lines {
		ns[i] = l
	}
	return ns
}

// Line is a sequence of words optionally followed by a comment. Terminator
// is the separator that ended the line, '#' if it ended with a comment, or
// zero at end of input.
type Line struct {
	Words      []*Word
	Comment    *Comment
	Terminator rune
}

func (l *Line) Children() []Node {
	ns := make([]Node, 0, len(l.Words)+1)
	for _, w := range l.Words {
		ns = append(ns, w)
	}
	if l.Comment != nil {
		ns = append(ns, l.Comment)
	}
	return ns
}

// Word is a run of adjacent segments not separated by whitespace.
type Word struct {
	Segments []*Segment
}

func (w *Word) Children() []Node {
	ns := make([]Node, len(w.Segments))
	for i, s := range w.Segments {
		ns[i] = s
	}
	return ns
}

// Segment is a quoted or unquoted part of a word. Quote is '\'', '"', or
// zero for unquoted segments.
type Segment struct {
	Quote    rune
	Elements []Element
}

func (s *Segment) IsQuoted() bool       { return s.Quote != 0 }
func (s *Segment) IsSingleQuoted() bool { return s.Quote == '\'' }
func (s *Segment) IsDoubleQuoted() bool { return s.Quote == '"' }

func (s *Segment) Children() []Node {
	ns := make([]Node, len(s.Elements))
	for i, e := range s.Elements {
		ns[i] = e
	}
	return ns
}

//go:generate go run golang.org/x/tools/cmd/stringer -type TextKind
type TextKind int

const (
	UnquotedText TextKind = iota
	SingleQuotedText
	DoubleQuotedText
	WhitespaceText
)

// Text is literal content, with escapes already resolved.
type Text struct {
	Kind  TextKind
	Value string
}

func (t *Text) Content() string { return t.Value }

// Glob is an unescaped glob pattern: "*", "?", or a bracket group.
type Glob struct {
	Pattern string
}

func (g *Glob) Content() string { return g.Pattern }

// Param is a parameter expansion, $NAME or ${NAME}, optionally with an
// operation as in ${NAME:-default}.
type Param struct {
	Name      string
	Operation *ParamOperation
}

func (p *Param) Content() string { return p.Name }

// ParamOperation is the ":-" (default value) or ":+" (alternate value)
// operator of a braced parameter expansion, with its argument.
type ParamOperation struct {
	Operator string
	Argument []*Segment
}

func (o *ParamOperation) Content() string { return o.Operator }

// Comment is the text following a '#', up to the end of the line.
type Comment struct {
	Text string
}

func (c *Comment) Content() string { return c.Text }

func (*Script) node()         {}
func (*Line) node()           {}
func (*Word) node()           {}
func (*Segment) node()        {}
func (*Text) node()           {}
func (*Glob) node()           {}
func (*Param) node()          {}
func (*ParamOperation) node() {}
func (*Comment) node()        {}

func (*Text) element()  {}
func (*Glob) element()  {}
func (*Param) element() {}

// Pretty renders a node and its descendants as an indented outline.
func Pretty(n Node) string {
	var b strings.Builder
	pretty(&b, n, 0)
	return strings.TrimRight(b.String(), "\n")
}

func pretty(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
	switch n := n.(type) {
	case *Param:
		fmt.Fprintf(b, "Param: %q\n", n.Name)
		if n.Operation != nil {
			pretty(b, n.Operation, depth+1)
		}
	case *ParamOperation:
		fmt.Fprintf(b, "ParamOperation: %q\n", n.Operator)
		b.WriteString(strings.Repeat("    ", depth+1) + "Argument:\n")
		for _, s := range n.Argument {
			pretty(b, s, depth+2)
		}
	case *Text:
		fmt.Fprintf(b, "%s: %q\n", n.Kind, n.Value)
	case ContentNode:
		fmt.Fprintf(b, "%s: %q\n", nodeName(n), n.Content())
	case SyntaxNode:
		fmt.Fprintf(b, "%s:\n", nodeName(n))
		for _, c := range n.Children() {
			pretty(b, c, depth+1)
		}
	}
}

func nodeName(n Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*cmdline.")
}
