package parser

import "fmt"

// ParseError is returned when the input cannot be tracked any further. The
// position is the one the parser was at when the problem was detected. After
// a ParseError the parser is in StateError and its escaping decisions must
// not be trusted.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func newParseError(line, column int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Column: column, Msg: fmt.Sprintf(format, args...)}
}
