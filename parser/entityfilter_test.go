package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityFilter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"a&quot;b", `a"b`},
		{"&#39;x&#39;", "'x'"},
		{"&#x27;", "'"},
		{"&lt;&gt;", "<>"},
		{"&zzz;", "&zzz;"},
		{"&zzz x", "&zzz x"},
		{"&abcdefghijk", "&abcdefghijk"},
		{"&&quot;", `&"`},
		{"a & b", "a & b"},
	}
	for _, tt := range tests {
		var f entityFilter
		var got []rune
		for _, r := range tt.in {
			got = append(got, f.process(r)...)
		}
		assert.Equal(t, tt.want, string(got), "decoding %q", tt.in)
	}
}

func TestEntityFilterClone(t *testing.T) {
	var f entityFilter
	for _, r := range "&quo" {
		assert.Empty(t, f.process(r))
	}
	c := f.clone()
	assert.Equal(t, []rune{'"'}, append(c.process('t'), c.process(';')...))
	assert.Equal(t, []rune("&quox"), f.process('x'))
}
