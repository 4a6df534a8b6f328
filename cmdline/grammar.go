package cmdline

import (
	"strings"
	"unicode"
)

// Parse parses src into a Script using the given dialect. The zero Dialect
// is treated as Cmd.
func Parse(src string, d Dialect) (*Script, error) {
	if d.glob == nil {
		d = Cmd
	}
	p := &parser{c: NewCursor(src), d: d}
	return p.script()
}

// parser holds the recursive-descent rules. Rules that may decline to match
// return ok == false after pushing back everything they consumed.
type parser struct {
	c *Cursor
	d Dialect
}

func (p *parser) isSeparator(r rune) bool {
	return strings.ContainsRune(p.d.LineSeparators, r)
}

func (p *parser) script() (*Script, error) {
	s := &Script{}
	for {
		r, ok := p.c.Peek()
		if !ok {
			return s, nil
		}
		if p.isSeparator(r) {
			p.c.Take()
			continue
		}
		line, err := p.line()
		if err != nil {
			return nil, err
		}
		if line != nil {
			s.Lines = append(s.Lines, line)
		}
	}
}

// line returns nil for a line with neither words nor a comment. The
// whitespace and separator of such a line are consumed.
func (p *parser) line() (*Line, error) {
	l := &Line{}
loop:
	for {
		r, ok := p.c.Take()
		switch {
		case !ok:
			break loop
		case p.isSeparator(r):
			l.Terminator = r
			break loop
		case unicode.IsSpace(r):
			continue
		case r == '#':
			l.Comment = p.comment()
			l.Terminator = '#'
			return l, nil
		default:
			p.c.Pushback(r)
			w, err := p.word()
			if err != nil {
				return nil, err
			}
			l.Words = append(l.Words, w)
		}
	}
	if len(l.Words) == 0 {
		return nil, nil
	}
	return l, nil
}

func (p *parser) comment() *Comment {
	var text []rune
	for {
		r, ok := p.c.Take()
		if !ok || strings.ContainsRune(lineBreakChars, r) {
			break
		}
		text = append(text, r)
	}
	return &Comment{Text: string(text)}
}

func (p *parser) word() (*Word, error) {
	w := &Word{}
	for {
		r, ok := p.c.Peek()
		if !ok || unicode.IsSpace(r) || r == ';' || r == '#' {
			return w, nil
		}
		seg, err := p.segment(false)
		if err != nil {
			return nil, err
		}
		w.Segments = append(w.Segments, seg)
	}
}

// segment parses one quoted or unquoted segment. Within a parameter
// operation's argument, unquoted segments follow argument rules: whitespace
// is kept and globs are not recognized.
func (p *parser) segment(inArgument bool) (*Segment, error) {
	seg := &Segment{}
	if r, _ := p.c.Peek(); r == '\'' || r == '"' {
		p.c.Take()
		seg.Quote = r
	}

	var err error
	switch seg.Quote {
	case '\'':
		var t *Text
		t, err = p.singleQuoted()
		if t != nil {
			seg.Elements = []Element{t}
		}
	case '"':
		err = p.doubleQuoted(seg)
	default:
		if inArgument {
			err = p.unquotedArgument(seg)
		} else {
			err = p.unquoted(seg)
		}
	}
	if err != nil {
		return nil, err
	}
	return seg, nil
}

func (p *parser) singleQuoted() (*Text, error) {
	var text []rune
	for {
		r, ok := p.c.Take()
		if !ok {
			return nil, parseErrorf(p.c, "Unexpected end of input with unmatched single quote")
		}
		if r == '\'' {
			return &Text{Kind: SingleQuotedText, Value: string(text)}, nil
		}
		text = append(text, r)
	}
}

func (p *parser) doubleQuoted(seg *Segment) error {
	for {
		r, ok := p.c.Peek()
		if !ok {
			return parseErrorf(p.c, "Unexpected end of input with unmatched double quote")
		}
		if r == '"' {
			p.c.Take()
			if len(seg.Elements) == 0 {
				seg.Elements = append(seg.Elements, &Text{Kind: DoubleQuotedText})
			}
			return nil
		}
		if r == '$' {
			param, ok, err := p.param()
			if err != nil {
				return err
			}
			if ok {
				seg.Elements = append(seg.Elements, param)
				continue
			}
			// Not a parameter: escape the '$' so it is read as text.
			p.c.Pushback('\\')
		}
		seg.Elements = append(seg.Elements, p.doubleQuotedText())
	}
}

func (p *parser) doubleQuotedText() *Text {
	var text []rune
	for {
		r, ok := p.c.Take()
		if !ok {
			break
		}
		if r == '\\' {
			if next, ok := p.c.Peek(); ok && (next == '"' || next == '$') {
				p.c.Take()
				text = append(text, next)
				continue
			}
		} else if r == '"' || r == '$' {
			p.c.Pushback(r)
			break
		}
		text = append(text, r)
	}
	return &Text{Kind: DoubleQuotedText, Value: string(text)}
}

const (
	unquotedBreakChars = `'";#$?*[`
	argumentBreakChars = `'"$}`
)

func (p *parser) unquoted(seg *Segment) error {
	for {
		r, ok := p.c.Peek()
		if !ok || unicode.IsSpace(r) || strings.ContainsRune(`'";#`, r) {
			return nil
		}

		switch r {
		case '$':
			param, ok, err := p.param()
			if err != nil {
				return err
			}
			if ok {
				seg.Elements = append(seg.Elements, param)
				continue
			}
			p.c.Pushback('\\')
		case '*', '?', '[':
			glob, ok, err := p.d.glob.parse(p.c)
			if err != nil {
				return err
			}
			if ok {
				seg.Elements = append(seg.Elements, glob)
				continue
			}
			p.c.Pushback('\\')
		}

		t, ok, err := p.unquotedText(unquotedBreakChars)
		if err != nil {
			return err
		}
		if ok {
			seg.Elements = append(seg.Elements, t)
		}
	}
}

func (p *parser) unquotedArgument(seg *Segment) error {
	for {
		r, ok := p.c.Peek()
		if !ok || r == '\'' || r == '"' || r == '}' {
			return nil
		}

		if unicode.IsSpace(r) {
			for r, ok := p.c.Peek(); ok && unicode.IsSpace(r); r, ok = p.c.Peek() {
				p.c.Take()
			}
			seg.Elements = append(seg.Elements, &Text{Kind: WhitespaceText, Value: " "})
			continue
		}

		if r == '$' {
			param, ok, err := p.param()
			if err != nil {
				return err
			}
			if ok {
				seg.Elements = append(seg.Elements, param)
				continue
			}
			p.c.Pushback('\\')
		}

		t, ok, err := p.unquotedText(argumentBreakChars)
		if err != nil {
			return err
		}
		if ok {
			seg.Elements = append(seg.Elements, t)
		}
	}
}

// unquotedText reads text up to whitespace or one of breaks. A backslash
// escapes any following rune.
func (p *parser) unquotedText(breaks string) (*Text, bool, error) {
	var text []rune
	for {
		r, ok := p.c.Take()
		if !ok {
			break
		}
		if r == '\\' {
			escaped, ok := p.c.Take()
			if !ok {
				return nil, false, parseErrorf(p.c, "Unexpected end of input after backslash")
			}
			text = append(text, escaped)
			continue
		}
		if unicode.IsSpace(r) || strings.ContainsRune(breaks, r) {
			p.c.Pushback(r)
			break
		}
		text = append(text, r)
	}
	if len(text) == 0 {
		return nil, false, nil
	}
	return &Text{Kind: UnquotedText, Value: string(text)}, true, nil
}

func isParamInit(r rune) bool { return strings.ContainsRune(paramInitChars, r) }
func isParamChar(r rune) bool { return strings.ContainsRune(paramChars, r) }

// param parses $NAME or ${NAME[:op arg]} at a '$'. A '$' that does not start
// a parameter is pushed back and ok is false.
func (p *parser) param() (*Param, bool, error) {
	p.c.Take()
	r, ok := p.c.Peek()
	if !ok {
		p.c.Pushback('$')
		return nil, false, nil
	}

	if r == '{' {
		p.c.Take()
		param := &Param{}
		var name []rune
		for {
			r, ok := p.c.Take()
			if !ok {
				return nil, false, parseErrorf(p.c, "Unexpected end of input, expected closing '}' after '${'")
			}
			switch {
			case r == '}':
				if len(name) == 0 {
					return nil, false, parseErrorf(p.c, "Bad substitution: ${}")
				}
				param.Name = string(name)
				return param, true, nil
			case len(name) == 0:
				if !isParamInit(r) {
					return nil, false, parseErrorf(p.c, "Bad substitution: Illegal first character in parameter name '%c'", r)
				}
				name = append(name, r)
			case r == ':':
				p.c.Pushback(r)
				op, err := p.paramOperation()
				if err != nil {
					return nil, false, err
				}
				param.Operation = op
			case !isParamChar(r):
				return nil, false, parseErrorf(p.c, "Bad substitution: Illegal character in parameter name '%c'", r)
			default:
				name = append(name, r)
			}
		}
	}

	if !isParamInit(r) {
		p.c.Pushback('$')
		return nil, false, nil
	}
	var name []rune
	for r, ok := p.c.Peek(); ok && isParamChar(r); r, ok = p.c.Peek() {
		p.c.Take()
		name = append(name, r)
	}
	return &Param{Name: string(name)}, true, nil
}

// paramOperation parses an operator and its argument. The closing '}' is
// left for the enclosing param.
func (p *parser) paramOperation() (*ParamOperation, error) {
	a, ok1 := p.c.Take()
	b, ok2 := p.c.Take()
	if !ok1 || !ok2 {
		return nil, parseErrorf(p.c, "Unexpected end of input in param expansion, expected '}'")
	}
	op := string([]rune{a, b})
	if op != ":-" && op != ":+" {
		return nil, parseErrorf(p.c, "Bad substitution: Unsupported operator '%s'", op)
	}

	operation := &ParamOperation{Operator: op}
	for {
		r, ok := p.c.Peek()
		if !ok || r == '}' {
			return operation, nil
		}
		seg, err := p.segment(true)
		if err != nil {
			return nil, err
		}
		operation.Argument = append(operation.Argument, seg)
	}
}
