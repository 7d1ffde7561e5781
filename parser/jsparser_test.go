package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJavascriptStates(t *testing.T) {
	tests := []struct {
		in   string
		want ExternalState
	}{
		{"", JSStateText},
		{"var x = 1;", JSStateText},
		{"'abc", JSStateQ},
		{`'a\'`, JSStateQ},
		{"'a'", JSStateText},
		{`"x`, JSStateDQ},
		{`"a\"`, JSStateDQ},
		{`"a'`, JSStateDQ},
		{"// c", JSStateComment},
		{"// c\n", JSStateText},
		{"/* c", JSStateComment},
		{"/* c */", JSStateText},
		{"/* c **/", JSStateText},
		{"x = a // comment", JSStateComment},

		// '/' opens a regexp or is a division depending on what precedes it
		{"/", JSStateRegexp},
		{"x = /", JSStateRegexp},
		{"x = /re", JSStateRegexp},
		{"x = a /", JSStateText},
		{"x = a / b", JSStateText},
		{"return /", JSStateRegexp},
		{"typeof /", JSStateRegexp},
		{"x in /", JSStateRegexp},
		{"min /", JSStateText},
		{"} /", JSStateRegexp},
		{"foo(a) /", JSStateText},
		{"a[0] /", JSStateText},
		{"i++ /", JSStateText},
		{"x = + /", JSStateRegexp},
		{"1. /", JSStateText},
		{"x = 'a' /", JSStateText},
		{"x = /a/ /", JSStateText},
		{"x = 1 /* c */ / 2", JSStateText},

		{"x = /[/]", JSStateRegexp},
		{`x = /a\/`, JSStateRegexp},
		{"x = /[/]/", JSStateText},
		{"x = /a/g", JSStateText},
		{"x = /a/i.test(y)", JSStateText},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			p := NewJavascriptParser()
			require.NoError(t, p.ParseString(tt.in))
			assert.Equal(t, tt.want, p.State())
		})
	}
}

func TestJavascriptInvalidRegexpFlag(t *testing.T) {
	tests := []struct {
		in     string
		column int
		msg    string
	}{
		{"x = /a/q", 8, "invalid regular expression flag 'q'"},
		{"x = /a/gg", 9, "invalid regular expression flag 'g'"},
		{"x = /a/dgimsuvyx", 16, "invalid regular expression flag 'x'"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			p := NewJavascriptParser()
			err := p.ParseString(tt.in)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, 1, perr.Line)
			require.Equal(t, tt.column, perr.Column)
			require.Equal(t, tt.msg, perr.Msg)
			require.Equal(t, StateError, p.State())

			require.Equal(t, err, p.Parse(';'))
			require.Equal(t, err, p.Finish())
			require.Equal(t, StateError, p.State())
		})
	}
}

func TestJavascriptFinish(t *testing.T) {
	tests := []struct {
		in     string
		column int
		msg    string
	}{
		{"x = 1;", 0, ""},
		{"// trailing", 0, ""},
		{"x = a /", 0, ""},
		{"'abc", 5, "unterminated string literal"},
		{`"a\`, 4, "unterminated escape sequence"},
		{"/* x", 5, "unterminated comment"},
		{"x = /ab", 8, "unterminated regular expression literal"},
		{"x = /", 6, "unterminated regular expression literal"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			p := NewJavascriptParser()
			require.NoError(t, p.ParseString(tt.in))
			before := p.State()

			err := p.Finish()
			if tt.msg == "" {
				require.NoError(t, err)
				return
			}
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.column, perr.Column)
			require.Equal(t, tt.msg, perr.Msg)
			require.Equal(t, before, p.State())
		})
	}
}

func TestJavascriptInsertText(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   ExternalState
	}{
		{"operand before slash", "x = ", " / 2", JSStateText},
		{"inside regexp after slash", "x = /", "/", JSStateText},
		{"division after slash", "x = a /", " / 2", JSStateText},
		{"after regexp flags", "x = /a/", " / 2", JSStateText},
		{"inside string", "x = '", "", JSStateQ},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewJavascriptParser()
			require.NoError(t, p.ParseString(tt.before))
			p.InsertText()
			require.NoError(t, p.ParseString(tt.after))
			assert.Equal(t, tt.want, p.State())
		})
	}

	t.Run("slash opening a regexp", func(t *testing.T) {
		p := NewJavascriptParser()
		require.NoError(t, p.ParseString("x = /"))
		p.InsertText()
		assert.Equal(t, JSStateRegexp, p.State())
		require.NoError(t, p.ParseString("/g"))
		assert.Equal(t, JSStateText, p.State())
	})
}

func TestJavascriptClone(t *testing.T) {
	p := NewJavascriptParser()
	require.NoError(t, p.ParseString("x = 'a"))

	c := p.Clone()
	require.NoError(t, c.ParseString("'; y = /"))
	assert.Equal(t, JSStateRegexp, c.State())
	assert.Equal(t, JSStateQ, p.State())

	require.NoError(t, p.ParseString("' + 1 /"))
	assert.Equal(t, JSStateText, p.State())
	assert.Equal(t, JSStateRegexp, c.State())
}

func TestJavascriptPosition(t *testing.T) {
	p := NewJavascriptParser()
	require.NoError(t, p.ParseString("a\nbc"))
	assert.Equal(t, 2, p.LineNumber())
	assert.Equal(t, 3, p.ColumnNumber())

	p.Reset()
	assert.Equal(t, 1, p.LineNumber())
	assert.Equal(t, 1, p.ColumnNumber())
	assert.Equal(t, JSStateText, p.State())
}

func TestJSBuffer(t *testing.T) {
	var b jsBuffer
	for _, r := range "  a  \n\t b" {
		b.push(r)
	}
	assert.Equal(t, "a b", b.String())

	b.reset()
	for _, r := range "abcdefghijklmnopqrst" {
		b.push(r)
	}
	assert.Equal(t, "cdefghijklmnopqrst", b.String())
	assert.Equal(t, jsBufferSize, len([]rune(b.String())))
}

func TestSlashStartsRegexp(t *testing.T) {
	tests := []struct {
		buffered string
		want     bool
	}{
		{"", true},
		{" ", true},
		{"x =", true},
		{"x = ", true},
		{"(", true},
		{",", true},
		{"return", true},
		{"return ", true},
		{"x.return", true},
		{"returns", false},
		{"x", false},
		{"0", false},
		{")", false},
		{"]", false},
		{"+", true},
		{"++", false},
		{"---", true},
		{"1.", false},
		{"a.", true},
		{"}", true},
	}
	for _, tt := range tests {
		var b jsBuffer
		for _, r := range tt.buffered {
			b.push(r)
		}
		assert.Equal(t, tt.want, b.slashStartsRegexp(), "after %q", tt.buffered)
	}
}
