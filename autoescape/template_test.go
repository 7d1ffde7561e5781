package autoescape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/streamparser/parser"
)

func mustParse(t *testing.T, name, src string) *Template {
	t.Helper()
	tmpl, err := ParseTemplate(name, src)
	require.NoError(t, err)
	return tmpl
}

func render(t *testing.T, tmpl *Template, data map[string]string, macros map[string]*Template) (string, error) {
	t.Helper()
	e, err := New(parser.ModeHTML)
	require.NoError(t, err)
	var out strings.Builder
	err = tmpl.Execute(&out, e, data, macros)
	return out.String(), err
}

func TestParseTemplateErrors(t *testing.T) {
	tests := map[string]string{
		"{{a":          "t:1: unclosed action",
		"{{ }}":        "t:1: empty action",
		"{{a b c}}":    `t:1: unknown action "a b c"`,
		"x\n{{a b c}}": `t:2: unknown action "a b c"`,
	}
	for src, want := range tests {
		_, err := ParseTemplate("t", src)
		require.Error(t, err, src)
		assert.Equal(t, want, err.Error(), src)
	}
}

func TestVariables(t *testing.T) {
	tmpl := mustParse(t, "t", "{{a}} {{raw b}} {{call c}}{{a}}")
	assert.Equal(t, []string{"a", "b", "a"}, tmpl.Variables())
}

func TestExecuteEscapesByContext(t *testing.T) {
	t.Parallel()
	tmpl := mustParse(t, "page",
		`<a href="{{url}}" title={{title}}>{{body}}</a><script>var n = {{n}}; var s = '{{s}}';</script>`)
	out, err := render(t, tmpl, map[string]string{
		"url":   "javascript:alert(1)",
		"title": "a b",
		"body":  "<b>",
		"n":     "alert(1)",
		"s":     "';x",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t,
		`<a href="#" title=a&#32;b>&lt;b&gt;</a><script>var n = null; var s = '\x27;x';</script>`,
		out)
}

func TestExecuteRawAndMissing(t *testing.T) {
	t.Parallel()
	tmpl := mustParse(t, "page", "<div>{{raw html}}</div>a{{missing}}b")
	out, err := render(t, tmpl, map[string]string{"html": "<i>x</i>"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<div><i>x</i></div>ab", out)
}

func TestExecuteMacros(t *testing.T) {
	t.Parallel()
	page := mustParse(t, "page", "<p>{{call greet}}</p>")

	t.Run("consistent", func(t *testing.T) {
		t.Parallel()
		macros := map[string]*Template{"greet": mustParse(t, "greet", "<b>{{name}}</b>")}
		out, err := render(t, page, map[string]string{"name": "<Bob>"}, macros)
		require.NoError(t, err)
		assert.Equal(t, "<p><b>&lt;Bob&gt;</b></p>", out)
	})

	t.Run("context changed", func(t *testing.T) {
		t.Parallel()
		macros := map[string]*Template{"greet": mustParse(t, "greet", `<a href="`)}
		_, err := render(t, page, nil, macros)
		var cerr *ConsistencyError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "greet", cerr.Name)
		assert.Equal(t, parser.StateText, cerr.Entry.State)
		assert.Equal(t, parser.StateValue, cerr.Exit.State)
	})

	t.Run("recursive", func(t *testing.T) {
		t.Parallel()
		macros := map[string]*Template{"greet": mustParse(t, "greet", "x{{call greet}}")}
		_, err := render(t, page, nil, macros)
		require.ErrorIs(t, err, ErrRecursiveInclude)
	})

	t.Run("undefined", func(t *testing.T) {
		t.Parallel()
		_, err := render(t, page, nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `undefined macro "greet"`)
	})
}

func TestExecuteMustEndWhereItStarted(t *testing.T) {
	t.Parallel()
	e, err := New(parser.ModeHTML)
	require.NoError(t, err)

	var out strings.Builder
	err = mustParse(t, "page", `<a href="{{x}}`).Execute(&out, e, map[string]string{"x": "/y"}, nil)
	var cerr *ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, e.Active())
	assert.Equal(t, `<a href="/y`, out.String())
}

func TestExecuteWhileActive(t *testing.T) {
	t.Parallel()
	e := newActiveEscaper(t)
	var out strings.Builder
	err := mustParse(t, "page", "x").Execute(&out, e, nil, nil)
	require.ErrorIs(t, err, ErrAlreadyActive)
}

func TestExecuteInJavascriptMode(t *testing.T) {
	t.Parallel()
	e, err := New(parser.ModeJS)
	require.NoError(t, err)

	var out strings.Builder
	tmpl := mustParse(t, "app", `var a = {{a}}; var b = "{{b}}";`)
	require.NoError(t, tmpl.Execute(&out, e, map[string]string{"a": "1.5", "b": `"</script>`}, nil))
	assert.Equal(t, `var a = 1.5; var b = "\x22\x3c\x2fscript\x3e";`, out.String())
}
