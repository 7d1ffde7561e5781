package parser

import "strings"

type jsState uint8

const (
	jsTextState jsState = iota
	jsQState
	jsQEscapeState
	jsDQState
	jsDQEscapeState
	jsSlashState
	jsRegexpState
	jsRegexpEscapeState
	jsRegexpClassState
	jsRegexpClassEscapeState
	jsRegexpFlagsState
	jsLineCommentState
	jsBlockCommentState
	jsBlockCommentStarState
	jsErrorState
)

var jsStateNames = [...]string{
	jsTextState:              "jsTextState",
	jsQState:                 "jsQState",
	jsQEscapeState:           "jsQEscapeState",
	jsDQState:                "jsDQState",
	jsDQEscapeState:          "jsDQEscapeState",
	jsSlashState:             "jsSlashState",
	jsRegexpState:            "jsRegexpState",
	jsRegexpEscapeState:      "jsRegexpEscapeState",
	jsRegexpClassState:       "jsRegexpClassState",
	jsRegexpClassEscapeState: "jsRegexpClassEscapeState",
	jsRegexpFlagsState:       "jsRegexpFlagsState",
	jsLineCommentState:       "jsLineCommentState",
	jsBlockCommentState:      "jsBlockCommentState",
	jsBlockCommentStarState:  "jsBlockCommentStarState",
	jsErrorState:             "jsErrorState",
}

func (s jsState) String() string {
	if int(s) < len(jsStateNames) {
		return jsStateNames[s]
	}
	return "jsUnknownState"
}

const regexpFlags = "dgimsuvy"

type jsStateHandler func(r rune) (bool, jsState)

// JavascriptParser tracks the lexical context of a javascript stream one
// character at a time: text, quoted strings, regular expression literals and
// comments. It never builds tokens.
type JavascriptParser struct {
	currentState jsState
	buffer       jsBuffer
	slashRegexp  bool
	flags        string
	errMsg       string
	err          *ParseError
	line, column int
}

// NewJavascriptParser creates a parser in the javascript text state.
func NewJavascriptParser() *JavascriptParser {
	p := &JavascriptParser{}
	p.Reset()
	return p
}

// Clone returns an independent copy of the parser.
func (p *JavascriptParser) Clone() *JavascriptParser {
	c := *p
	return &c
}

// Reset puts the parser back in its initial state, position included.
func (p *JavascriptParser) Reset() {
	*p = JavascriptParser{line: 1, column: 1}
}

func (p *JavascriptParser) stateToParser(state jsState) jsStateHandler {
	switch state {
	case jsTextState:
		return p.textStateParser
	case jsQState:
		return p.qStateParser
	case jsQEscapeState:
		return p.qEscapeStateParser
	case jsDQState:
		return p.dqStateParser
	case jsDQEscapeState:
		return p.dqEscapeStateParser
	case jsSlashState:
		return p.slashStateParser
	case jsRegexpState:
		return p.regexpStateParser
	case jsRegexpEscapeState:
		return p.regexpEscapeStateParser
	case jsRegexpClassState:
		return p.regexpClassStateParser
	case jsRegexpClassEscapeState:
		return p.regexpClassEscapeStateParser
	case jsRegexpFlagsState:
		return p.regexpFlagsStateParser
	case jsLineCommentState:
		return p.lineCommentStateParser
	case jsBlockCommentState:
		return p.blockCommentStateParser
	case jsBlockCommentStarState:
		return p.blockCommentStarStateParser
	}
	return p.errorStateParser
}

func (p *JavascriptParser) textStateParser(r rune) (bool, jsState) {
	switch r {
	case '\'':
		return false, jsQState
	case '"':
		return false, jsDQState
	case '/':
		p.slashRegexp = p.buffer.slashStartsRegexp()
		return false, jsSlashState
	default:
		p.buffer.push(r)
		return false, jsTextState
	}
}

func (p *JavascriptParser) qStateParser(r rune) (bool, jsState) {
	switch r {
	case '\\':
		return false, jsQEscapeState
	case '\'':
		p.buffer.push(jsOperand)
		return false, jsTextState
	default:
		return false, jsQState
	}
}

func (p *JavascriptParser) qEscapeStateParser(r rune) (bool, jsState) {
	return false, jsQState
}

func (p *JavascriptParser) dqStateParser(r rune) (bool, jsState) {
	switch r {
	case '\\':
		return false, jsDQEscapeState
	case '"':
		p.buffer.push(jsOperand)
		return false, jsTextState
	default:
		return false, jsDQState
	}
}

func (p *JavascriptParser) dqEscapeStateParser(r rune) (bool, jsState) {
	return false, jsDQState
}

func (p *JavascriptParser) slashStateParser(r rune) (bool, jsState) {
	switch r {
	case '/':
		return false, jsLineCommentState
	case '*':
		return false, jsBlockCommentState
	}
	if p.slashRegexp {
		return true, jsRegexpState
	}
	p.buffer.push('/')
	return true, jsTextState
}

func (p *JavascriptParser) regexpStateParser(r rune) (bool, jsState) {
	switch r {
	case '\\':
		return false, jsRegexpEscapeState
	case '[':
		return false, jsRegexpClassState
	case '/':
		p.flags = ""
		p.buffer.push(jsOperand)
		return false, jsRegexpFlagsState
	default:
		return false, jsRegexpState
	}
}

func (p *JavascriptParser) regexpEscapeStateParser(r rune) (bool, jsState) {
	return false, jsRegexpState
}

func (p *JavascriptParser) regexpClassStateParser(r rune) (bool, jsState) {
	switch r {
	case '\\':
		return false, jsRegexpClassEscapeState
	case ']':
		return false, jsRegexpState
	default:
		return false, jsRegexpClassState
	}
}

func (p *JavascriptParser) regexpClassEscapeStateParser(r rune) (bool, jsState) {
	return false, jsRegexpClassState
}

func (p *JavascriptParser) regexpFlagsStateParser(r rune) (bool, jsState) {
	if !isJSIdentifierChar(r) {
		return true, jsTextState
	}
	if !strings.ContainsRune(regexpFlags, r) || strings.ContainsRune(p.flags, r) {
		p.errMsg = "invalid regular expression flag '" + string(r) + "'"
		return false, jsErrorState
	}
	p.flags += string(r)
	return false, jsRegexpFlagsState
}

func (p *JavascriptParser) lineCommentStateParser(r rune) (bool, jsState) {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		p.buffer.push(' ')
		return false, jsTextState
	default:
		return false, jsLineCommentState
	}
}

func (p *JavascriptParser) blockCommentStateParser(r rune) (bool, jsState) {
	if r == '*' {
		return false, jsBlockCommentStarState
	}
	return false, jsBlockCommentState
}

func (p *JavascriptParser) blockCommentStarStateParser(r rune) (bool, jsState) {
	switch r {
	case '/':
		p.buffer.push(' ')
		return false, jsTextState
	case '*':
		return false, jsBlockCommentStarState
	default:
		return false, jsBlockCommentState
	}
}

func (p *JavascriptParser) errorStateParser(r rune) (bool, jsState) {
	return false, jsErrorState
}

// processRune runs r through the machine, reporting a failure at the given
// position. The html parser drives embedded javascript through here with its
// own position.
func (p *JavascriptParser) processRune(r rune, line, column int) {
	if p.currentState == jsErrorState {
		return
	}
	reconsume := true
	for reconsume {
		from := p.currentState
		reconsume, p.currentState = p.stateToParser(p.currentState)(r)
		traceTransition("js", r, from, p.currentState)
	}
	if p.currentState == jsErrorState {
		p.err = newParseError(line, column, "%s", p.errMsg)
	}
}

func (p *JavascriptParser) advancePosition(r rune) {
	if r == '\n' {
		p.line++
		p.column = 1
		return
	}
	p.column++
}

// Parse consumes one character.
func (p *JavascriptParser) Parse(r rune) error {
	if p.err != nil {
		return p.err
	}
	p.processRune(r, p.line, p.column)
	p.advancePosition(r)
	if p.err != nil {
		return p.err
	}
	return nil
}

// ParseString consumes s character by character, stopping at the first error.
func (p *JavascriptParser) ParseString(s string) error {
	for _, r := range s {
		if err := p.Parse(r); err != nil {
			return err
		}
	}
	return nil
}

// Finish reports constructs left open at the end of the input. It does not
// change the parser state.
func (p *JavascriptParser) Finish() error {
	if p.err != nil {
		return p.err
	}
	if msg := p.unterminated(); msg != "" {
		return newParseError(p.line, p.column, "%s", msg)
	}
	return nil
}

func (p *JavascriptParser) unterminated() string {
	switch p.currentState {
	case jsQState, jsDQState:
		return "unterminated string literal"
	case jsQEscapeState, jsDQEscapeState, jsRegexpEscapeState, jsRegexpClassEscapeState:
		return "unterminated escape sequence"
	case jsRegexpState, jsRegexpClassState:
		return "unterminated regular expression literal"
	case jsSlashState:
		if p.slashRegexp {
			return "unterminated regular expression literal"
		}
	case jsBlockCommentState, jsBlockCommentStarState:
		return "unterminated comment"
	}
	return ""
}

// State returns the external state.
func (p *JavascriptParser) State() ExternalState {
	switch p.currentState {
	case jsQState, jsQEscapeState:
		return JSStateQ
	case jsDQState, jsDQEscapeState:
		return JSStateDQ
	case jsRegexpState, jsRegexpEscapeState, jsRegexpClassState, jsRegexpClassEscapeState:
		return JSStateRegexp
	case jsSlashState:
		if p.slashRegexp {
			return JSStateRegexp
		}
		return JSStateText
	case jsLineCommentState, jsBlockCommentState, jsBlockCommentStarState:
		return JSStateComment
	case jsErrorState:
		return StateError
	default:
		return JSStateText
	}
}

// InsertText records that an operand was emitted without being parsed, so
// that a following '/' is taken as division.
func (p *JavascriptParser) InsertText() {
	switch p.currentState {
	case jsSlashState:
		if p.slashRegexp {
			p.currentState = jsRegexpState
			return
		}
		p.buffer.push('/')
		p.buffer.push(jsOperand)
		p.currentState = jsTextState
	case jsTextState:
		p.buffer.push(jsOperand)
	case jsRegexpFlagsState:
		p.currentState = jsTextState
	}
}

func (p *JavascriptParser) LineNumber() int         { return p.line }
func (p *JavascriptParser) ColumnNumber() int       { return p.column }
func (p *JavascriptParser) SetLineNumber(line int)  { p.line = line }
func (p *JavascriptParser) SetColumnNumber(col int) { p.column = col }
