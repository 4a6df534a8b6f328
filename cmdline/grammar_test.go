package cmdline_test

import (
	"errors"
	"testing"

	"github.com/amonks/chore/cmdline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unquoted(v string) *cmdline.Text { return &cmdline.Text{Kind: cmdline.UnquotedText, Value: v} }
func single(v string) *cmdline.Text   { return &cmdline.Text{Kind: cmdline.SingleQuotedText, Value: v} }
func double(v string) *cmdline.Text   { return &cmdline.Text{Kind: cmdline.DoubleQuotedText, Value: v} }
func space() *cmdline.Text            { return &cmdline.Text{Kind: cmdline.WhitespaceText, Value: " "} }
func glob(p string) *cmdline.Glob     { return &cmdline.Glob{Pattern: p} }
func param(name string) *cmdline.Param {
	return &cmdline.Param{Name: name}
}

func seg(quote rune, els ...cmdline.Element) *cmdline.Segment {
	return &cmdline.Segment{Quote: quote, Elements: els}
}

func word(segs ...*cmdline.Segment) *cmdline.Word {
	return &cmdline.Word{Segments: segs}
}

// words is a word per argument, each a single unquoted text.
func words(args ...string) []*cmdline.Word {
	ws := make([]*cmdline.Word, len(args))
	for i, a := range args {
		ws[i] = word(seg(0, unquoted(a)))
	}
	return ws
}

func assertParse(t *testing.T, src string, d cmdline.Dialect, want ...*cmdline.Line) {
	t.Helper()
	got, err := cmdline.Parse(src, d)
	require.NoError(t, err)
	if diff := cmp.Diff(&cmdline.Script{Lines: want}, got); diff != "" {
		t.Errorf("Parse(%q) mismatch (-want +got):\n%s\n%s", src, diff, cmdline.Pretty(got))
	}
}

func TestParse(t *testing.T) {
	t.Run("simple words", func(t *testing.T) {
		assertParse(t, "echo  hello\tworld", cmdline.Cmd,
			&cmdline.Line{Words: words("echo", "hello", "world")})
	})

	t.Run("empty input", func(t *testing.T) {
		assertParse(t, "", cmdline.Shell)
		assertParse(t, " \n ; ", cmdline.Shell)
	})

	t.Run("quoted segments", func(t *testing.T) {
		assertParse(t, `a 'b c' "d $E f" x"y"'z'`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, unquoted("a"))),
				word(seg('\'', single("b c"))),
				word(seg('"', double("d "), param("E"), double(" f"))),
				word(
					seg(0, unquoted("x")),
					seg('"', double("y")),
					seg('\'', single("z")),
				),
			}})
	})

	t.Run("empty quotes", func(t *testing.T) {
		assertParse(t, `'' ""`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg('\'', single(""))),
				word(seg('"', double(""))),
			}})
	})

	t.Run("escapes", func(t *testing.T) {
		assertParse(t, `a\ b "c\"d\$e\f" 'g\h'`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, unquoted("a b"))),
				word(seg('"', double(`c"d$e\f`))),
				word(seg('\'', single(`g\h`))),
			}})
	})

	t.Run("shell line separators", func(t *testing.T) {
		assertParse(t, "a; b\nc", cmdline.Shell,
			&cmdline.Line{Words: words("a"), Terminator: ';'},
			&cmdline.Line{Words: words("b"), Terminator: '\n'},
			&cmdline.Line{Words: words("c")},
		)
	})

	t.Run("cmd lines span newlines", func(t *testing.T) {
		assertParse(t, "a; b\nc", cmdline.Cmd,
			&cmdline.Line{Words: words("a"), Terminator: ';'},
			&cmdline.Line{Words: words("b", "c")},
		)
	})

	t.Run("comments", func(t *testing.T) {
		assertParse(t, "ls # list it\npwd", cmdline.Shell,
			&cmdline.Line{Words: words("ls"), Comment: &cmdline.Comment{Text: " list it"}, Terminator: '#'},
			&cmdline.Line{Words: words("pwd")},
		)
		assertParse(t, "# only", cmdline.Cmd,
			&cmdline.Line{Comment: &cmdline.Comment{Text: " only"}, Terminator: '#'},
		)
	})

	t.Run("bash globs", func(t *testing.T) {
		assertParse(t, `ls *.py [ab]c x[!] [a b \?`, cmdline.Shell,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, unquoted("ls"))),
				word(seg(0, glob("*"), unquoted(".py"))),
				word(seg(0, glob("[ab]"), unquoted("c"))),
				word(seg(0, unquoted("x"), unquoted("[!]"))),
				word(seg(0, unquoted("[a"))),
				word(seg(0, unquoted("b"))),
				word(seg(0, unquoted("?"))),
			}})
	})

	t.Run("bash glob escapes", func(t *testing.T) {
		assertParse(t, `[\]a]`, cmdline.Shell,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, glob("[]a]"))),
			}})
	})

	t.Run("path globs", func(t *testing.T) {
		assertParse(t, `ls [a b] [\] ?`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, unquoted("ls"))),
				word(seg(0, glob("[a b]"))),
				word(seg(0, glob(`[\]`))),
				word(seg(0, glob("?"))),
			}})
	})

	t.Run("globs are literal in quotes", func(t *testing.T) {
		assertParse(t, `"*" '?'`, cmdline.Shell,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg('"', double("*"))),
				word(seg('\'', single("?"))),
			}})
	})

	t.Run("params", func(t *testing.T) {
		assertParse(t, `$A${B}x $ $1 a$`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, param("A"), param("B"), unquoted("x"))),
				word(seg(0, unquoted("$"))),
				word(seg(0, unquoted("$1"))),
				word(seg(0, unquoted("a"), unquoted("$"))),
			}})
	})

	t.Run("param operations", func(t *testing.T) {
		assertParse(t, `${C:-d  e} ${X:+'hello world'}`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, &cmdline.Param{Name: "C", Operation: &cmdline.ParamOperation{
					Operator: ":-",
					Argument: []*cmdline.Segment{seg(0, unquoted("d"), space(), unquoted("e"))},
				}})),
				word(seg(0, &cmdline.Param{Name: "X", Operation: &cmdline.ParamOperation{
					Operator: ":+",
					Argument: []*cmdline.Segment{seg('\'', single("hello world"))},
				}})),
			}})
	})

	t.Run("nested param operations", func(t *testing.T) {
		assertParse(t, `${A:-$B}`, cmdline.Cmd,
			&cmdline.Line{Words: []*cmdline.Word{
				word(seg(0, &cmdline.Param{Name: "A", Operation: &cmdline.ParamOperation{
					Operator: ":-",
					Argument: []*cmdline.Segment{seg(0, param("B"))},
				}})),
			}})
	})
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		src     string
		dialect cmdline.Dialect
		msg     string
	}{
		{`'abc`, cmdline.Cmd, "Unexpected end of input with unmatched single quote"},
		{`"abc`, cmdline.Cmd, "Unexpected end of input with unmatched double quote"},
		{`abc\`, cmdline.Cmd, "Unexpected end of input after backslash"},
		{`[a\`, cmdline.Shell, "Invalid pattern: unexpected end of input after backslash"},
		{`${}`, cmdline.Cmd, "Bad substitution: ${}"},
		{`${1a}`, cmdline.Cmd, "Bad substitution: Illegal first character in parameter name '1'"},
		{`${a-b}`, cmdline.Cmd, "Bad substitution: Illegal character in parameter name '-'"},
		{`${abc`, cmdline.Cmd, "Unexpected end of input, expected closing '}' after '${'"},
		{`${a:`, cmdline.Cmd, "Unexpected end of input in param expansion, expected '}'"},
		{`${a:=b}`, cmdline.Cmd, "Bad substitution: Unsupported operator ':='"},
	} {
		t.Run(tc.src, func(t *testing.T) {
			_, err := cmdline.Parse(tc.src, tc.dialect)
			var perr *cmdline.ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tc.msg, perr.Msg)
		})
	}

	t.Run("error position", func(t *testing.T) {
		_, err := cmdline.Parse("ok\n'abc", cmdline.Shell)
		var perr *cmdline.ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, 1, perr.Line)
		assert.Equal(t, 4, perr.Column)
		assert.EqualError(t, err, "Unexpected end of input with unmatched single quote (line 2, column 5)")
	})
}

func TestPretty(t *testing.T) {
	script, err := cmdline.Parse(`echo "a$B" # c`, cmdline.Cmd)
	require.NoError(t, err)
	assert.Equal(t, `Script:
    Line:
        Word:
            Segment:
                UnquotedText: "echo"
        Word:
            Segment:
                DoubleQuotedText: "a"
                Param: "B"
        Comment: " c"`, cmdline.Pretty(script))
}
