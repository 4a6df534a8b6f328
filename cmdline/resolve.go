package cmdline

import (
	"regexp"
	"strings"
	"unicode"
)

// Token is one resolved argument. Glob is set when Text contains unescaped
// glob syntax that should be expanded against the filesystem.
type Token struct {
	Text string
	Glob bool
}

// Resolve returns every token produced by ResolveFunc.
func Resolve(lines []*Line, env map[string]string, d Dialect) []Token {
	var tokens []Token
	ResolveFunc(lines, env, d, func(t Token) bool {
		tokens = append(tokens, t)
		return true
	})
	return tokens
}

// ResolveFunc substitutes parameters from env into the words of lines and
// calls yield with each resulting token, in order, until yield returns
// false.
//
// Unquoted parameter values are split on whitespace, and each piece is
// checked for glob syntax with the dialect's glob pattern. Quoted values are
// kept whole. When any part of a token is a glob, the literal glob
// characters of its other parts are escaped.
func ResolveFunc(lines []*Line, env map[string]string, d Dialect, yield func(Token) bool) {
	r := &resolver{env: env, glob: d.GlobPattern(), yield: yield}
	for _, line := range lines {
		for _, word := range line.Words {
			if r.stopped {
				return
			}
			r.word(word)
		}
	}
}

type part struct {
	text string
	glob bool
}

type resolver struct {
	env     map[string]string
	glob    *regexp.Regexp
	yield   func(Token) bool
	parts   []part
	stopped bool
}

func (r *resolver) add(text string, glob bool) {
	r.parts = append(r.parts, part{text, glob})
}

// flush emits the accumulated parts as a token.
func (r *resolver) flush() {
	if r.stopped {
		return
	}
	t := finalize(r.parts)
	r.parts = r.parts[:0]
	if !r.yield(t) {
		r.stopped = true
	}
}

func (r *resolver) word(w *Word) {
	for _, seg := range w.Segments {
		for _, el := range seg.Elements {
			switch el := el.(type) {
			case *Param:
				r.param(el, seg.IsQuoted())
			case *Glob:
				r.add(el.Pattern, true)
			default:
				r.add(el.Content(), false)
			}
		}
	}
	if len(r.parts) > 0 {
		r.flush()
	}
}

func (r *resolver) param(p *Param, quoted bool) {
	value, argument, applied := r.value(p)
	if !applied {
		switch {
		case value == "":
		case quoted:
			r.add(value, false)
		case isBlank(value):
			r.add(" ", false)
		default:
			r.split(value)
		}
		return
	}

	empty := true
	for _, a := range argument {
		if a.text != "" {
			empty = false
		}
	}
	if empty {
		return
	}
	if quoted {
		var b strings.Builder
		for _, a := range argument {
			b.WriteString(a.text)
		}
		r.add(b.String(), false)
		return
	}
	for _, a := range argument {
		switch {
		case a.text == "":
		case a.quoted:
			r.add(a.text, false)
		case isBlank(a.text):
			if len(r.parts) > 0 {
				r.flush()
			}
		default:
			r.split(a.text)
		}
	}
}

// split adds an unquoted value, ending the current token at each run of
// whitespace.
func (r *resolver) split(value string) {
	if startsWithSpace(value) && len(r.parts) > 0 {
		r.flush()
	}
	for i, field := range strings.Fields(value) {
		if i > 0 && len(r.parts) > 0 {
			r.flush()
		}
		r.add(field, r.glob.MatchString(field))
	}
	if endsWithSpace(value) && len(r.parts) > 0 {
		r.flush()
	}
}

type argumentPart struct {
	text   string
	quoted bool
}

// value looks up a parameter. When the parameter's operation applies, the
// resolved operation argument is returned instead, with applied set.
func (r *resolver) value(p *Param) (value string, argument []argumentPart, applied bool) {
	value = r.env[p.Name]
	if op := p.Operation; op != nil {
		if (value != "" && op.Operator == ":+") || (value == "" && op.Operator == ":-") {
			return "", r.argument(op.Argument), true
		}
	}
	return value, nil, false
}

func (r *resolver) argument(segs []*Segment) []argumentPart {
	parts := make([]argumentPart, 0, len(segs))
	for _, seg := range segs {
		var b strings.Builder
		for _, el := range seg.Elements {
			p, ok := el.(*Param)
			if !ok {
				b.WriteString(el.Content())
				continue
			}
			value, argument, applied := r.value(p)
			if !applied {
				b.WriteString(value)
				continue
			}
			for _, a := range argument {
				b.WriteString(a.text)
			}
		}
		parts = append(parts, argumentPart{b.String(), seg.IsQuoted()})
	}
	return parts
}

func finalize(parts []part) Token {
	var hasGlob bool
	for _, p := range parts {
		hasGlob = hasGlob || p.glob
	}
	var b strings.Builder
	for _, p := range parts {
		if hasGlob && !p.glob {
			b.WriteString(EscapeGlob(p.text))
		} else {
			b.WriteString(p.text)
		}
	}
	return Token{Text: b.String(), Glob: hasGlob}
}

// EscapeGlob wraps each glob metacharacter of s in brackets so that it
// matches only itself.
func EscapeGlob(s string) string {
	if !strings.ContainsAny(s, "*?[") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

func startsWithSpace(s string) bool {
	for _, r := range s {
		return unicode.IsSpace(r)
	}
	return false
}

func endsWithSpace(s string) bool {
	return strings.TrimRightFunc(s, unicode.IsSpace) != s
}
