package cmdline

import "fmt"

// ParseError reports malformed command syntax. Line and Column are 0-based
// and locate the cursor at the point of failure.
type ParseError struct {
	Msg    string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d, column %d)", e.Msg, e.Line+1, e.Column+1)
}

func parseErrorf(c *Cursor, format string, args ...any) *ParseError {
	line, col := c.Position()
	return &ParseError{Msg: fmt.Sprintf(format, args...), Line: line, Column: col}
}
