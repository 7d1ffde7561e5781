// Package parser tracks the lexical context of an HTML document, and of the
// javascript embedded in it, one character at a time. It does not build a
// tree. It answers where in the document the next character lands, which is
// what an auto-escaping template engine needs to choose an escaper.
package parser

// Parser is the contract shared by HTMLParser and JavascriptParser.
//
// Parsers are not safe for concurrent use. Each render owns its parser, or a
// clone of a shared one.
type Parser interface {
	// Parse consumes one character. A returned error is a *ParseError and
	// leaves the parser in StateError.
	Parse(r rune) error
	// ParseString consumes s, stopping at the first error.
	ParseString(s string) error
	// Finish reports constructs left open at the end of the input.
	Finish() error
	State() ExternalState
	Reset()

	LineNumber() int
	ColumnNumber() int
	SetLineNumber(line int)
	SetColumnNumber(column int)
}

var (
	_ Parser = (*HTMLParser)(nil)
	_ Parser = (*JavascriptParser)(nil)
)
