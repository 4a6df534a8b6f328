package cmdline

// Cursor is a pull-based rune stream with unbounded pushback. Every grammar
// rule reads from a Cursor, and rules that fail to match push back what they
// consumed so that another rule can try.
//
// Line and column tracking assumes line breaks are encoded as a bare '\n'.
type Cursor struct {
	src []rune
	pos int

	// stack holds pushed-back runes; the top of the stack is the next rune
	// to be taken.
	stack []rune

	line        int
	column      int
	lineLengths []int
}

// NewCursor returns a Cursor positioned at the start of s.
func NewCursor(s string) *Cursor {
	return &Cursor{src: []rune(s), column: -1}
}

// Position returns the 0-based line and column of the most recently taken
// rune.
func (c *Cursor) Position() (line, column int) {
	return max(0, c.line), max(0, c.column)
}

// Peek returns the next rune without consuming it. The second return value
// is false at end of input.
func (c *Cursor) Peek() (rune, bool) {
	if len(c.stack) == 0 {
		if c.pos >= len(c.src) {
			return 0, false
		}
		c.stack = append(c.stack, c.src[c.pos])
		c.pos++
	}
	return c.stack[len(c.stack)-1], true
}

// Take consumes and returns the next rune. The second return value is false
// at end of input.
func (c *Cursor) Take() (rune, bool) {
	var r rune
	if n := len(c.stack); n > 0 {
		r = c.stack[n-1]
		c.stack = c.stack[:n-1]
	} else if c.pos < len(c.src) {
		r = c.src[c.pos]
		c.pos++
	} else {
		c.column++
		return 0, false
	}

	if r == '\n' {
		c.lineLengths = append(c.lineLengths, c.column)
		c.line++
		c.column = -1
	} else {
		c.column++
	}
	return r, true
}

// Pushback restores runes so that subsequent calls to Take return them in
// the order given.
func (c *Cursor) Pushback(rs ...rune) {
	for i := len(rs) - 1; i >= 0; i-- {
		r := rs[i]
		c.stack = append(c.stack, r)
		if n := len(c.lineLengths); r == '\n' && n > 0 {
			c.column = c.lineLengths[n-1]
			c.lineLengths = c.lineLengths[:n-1]
			c.line = max(0, c.line-1)
		} else {
			c.column--
		}
	}
}

// More reports whether any input remains.
func (c *Cursor) More() bool {
	_, ok := c.Peek()
	return ok
}
