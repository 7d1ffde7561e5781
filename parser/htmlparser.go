package parser

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// maxStringLength bounds the tag, attribute and value buffers. Longer input
// is still parsed but not recorded.
const maxStringLength = 256

type htmlState uint8

const (
	textState htmlState = iota
	tagStartState
	closeTagOpenState
	tagNameState
	tagSpaceState
	attrNameState
	attrSpaceState
	valueState
	valueTextState
	valueQState
	valueDQState
	declStartState
	declBodyState
	commentOpenState
	commentBodyState
	commentDashState
	commentDashDashState
	piState
	piMayEndState
	cdataTextState
	cdataLessThanSignState
	cdataMayCloseState
	jsFileState
	cssFileState
	errorState
)

var htmlStateNames = [...]string{
	textState:              "textState",
	tagStartState:          "tagStartState",
	closeTagOpenState:      "closeTagOpenState",
	tagNameState:           "tagNameState",
	tagSpaceState:          "tagSpaceState",
	attrNameState:          "attrNameState",
	attrSpaceState:         "attrSpaceState",
	valueState:             "valueState",
	valueTextState:         "valueTextState",
	valueQState:            "valueQState",
	valueDQState:           "valueDQState",
	declStartState:         "declStartState",
	declBodyState:          "declBodyState",
	commentOpenState:       "commentOpenState",
	commentBodyState:       "commentBodyState",
	commentDashState:       "commentDashState",
	commentDashDashState:   "commentDashDashState",
	piState:                "piState",
	piMayEndState:          "piMayEndState",
	cdataTextState:         "cdataTextState",
	cdataLessThanSignState: "cdataLessThanSignState",
	cdataMayCloseState:     "cdataMayCloseState",
	jsFileState:            "jsFileState",
	cssFileState:           "cssFileState",
	errorState:             "errorState",
}

func (s htmlState) String() string {
	if int(s) < len(htmlStateNames) {
		return htmlStateNames[s]
	}
	return "unknownState"
}

type htmlStateHandler func(r rune) (bool, htmlState)

// HTMLParser follows an HTML document character by character and reports
// the context the next character falls in: text, tag, attribute name or
// value, comment, or embedded javascript and css.
type HTMLParser struct {
	currentState htmlState
	tag          string
	closingTag   bool
	attr         string
	attrType     AttributeType
	metaContent  bool
	value        string
	valueIndex   int
	cdataClose   string

	// metaURLStart is the value index at which the URL of a meta refresh
	// value begins, -1 until "url=" has been seen.
	metaURLStart int

	// js is only set while a javascript context is active: a script
	// element, a javascript attribute value or ModeJS.
	js     *JavascriptParser
	entity entityFilter

	errMsg       string
	err          *ParseError
	line, column int
}

// NewHTMLParser creates a parser at the top level of an HTML document.
func NewHTMLParser() *HTMLParser {
	p := &HTMLParser{}
	p.Reset()
	return p
}

// Clone returns a deep copy that shares no mutable state with p.
func (p *HTMLParser) Clone() *HTMLParser {
	c := *p
	if p.js != nil {
		c.js = p.js.Clone()
	}
	c.entity = p.entity.clone()
	return &c
}

// Reset puts the parser back at the top of an HTML document, position
// included.
func (p *HTMLParser) Reset() {
	*p = HTMLParser{line: 1, column: 1, metaURLStart: -1}
}

// ResetMode resets the parser as if it was at the top level of mode. It is
// used for content that is known to be embedded in a context the parser does
// not see, like a template included inside a script element.
func (p *HTMLParser) ResetMode(mode Mode) error {
	p.Reset()
	switch mode {
	case ModeHTML:
	case ModeJS:
		p.currentState = jsFileState
		p.js = NewJavascriptParser()
	case ModeCSS:
		p.currentState = cssFileState
	case ModeHTMLInTag:
		p.currentState = tagSpaceState
	default:
		return errors.Errorf("unknown parser mode %d", mode)
	}
	return nil
}

func (p *HTMLParser) stateToParser(state htmlState) htmlStateHandler {
	switch state {
	case textState:
		return p.textStateParser
	case tagStartState:
		return p.tagStartStateParser
	case closeTagOpenState:
		return p.closeTagOpenStateParser
	case tagNameState:
		return p.tagNameStateParser
	case tagSpaceState:
		return p.tagSpaceStateParser
	case attrNameState:
		return p.attrNameStateParser
	case attrSpaceState:
		return p.attrSpaceStateParser
	case valueState:
		return p.valueStateParser
	case valueTextState:
		return p.valueTextStateParser
	case valueQState:
		return p.valueQStateParser
	case valueDQState:
		return p.valueDQStateParser
	case declStartState:
		return p.declStartStateParser
	case declBodyState:
		return p.declBodyStateParser
	case commentOpenState:
		return p.commentOpenStateParser
	case commentBodyState:
		return p.commentBodyStateParser
	case commentDashState:
		return p.commentDashStateParser
	case commentDashDashState:
		return p.commentDashDashStateParser
	case piState:
		return p.piStateParser
	case piMayEndState:
		return p.piMayEndStateParser
	case cdataTextState:
		return p.cdataTextStateParser
	case cdataLessThanSignState:
		return p.cdataLessThanSignStateParser
	case cdataMayCloseState:
		return p.cdataMayCloseStateParser
	case jsFileState:
		return p.jsFileStateParser
	case cssFileState:
		return p.cssFileStateParser
	}
	return p.errorStateParser
}

func appendBounded(s string, r rune) string {
	if len(s) >= maxStringLength {
		return s
	}
	return s + string(r)
}

func (p *HTMLParser) fail(format string, args ...interface{}) (bool, htmlState) {
	p.errMsg = fmt.Sprintf(format, args...)
	return false, errorState
}

func (p *HTMLParser) startTag(closing bool) {
	p.tag = ""
	p.closingTag = closing
	p.clearAttribute()
}

func (p *HTMLParser) clearAttribute() {
	p.attr = ""
	p.attrType = AttrNone
	p.metaContent = false
	p.value = ""
	p.valueIndex = 0
	p.metaURLStart = -1
}

func (p *HTMLParser) finishAttributeName() {
	p.attrType = classifyAttribute(p.attr)
	p.metaContent = isMetaContent(p.tag, p.attr)
}

func (p *HTMLParser) enterValue() {
	p.value = ""
	p.valueIndex = 0
	p.metaURLStart = -1
	p.entity.reset()
	if p.attrType == AttrJS {
		p.js = NewJavascriptParser()
	}
}

func (p *HTMLParser) exitValue() {
	p.js = nil
	p.entity.reset()
}

// appendValue records r as part of the attribute value and feeds it, with
// character references decoded, to the javascript parser when the attribute
// holds javascript.
func (p *HTMLParser) appendValue(r rune) bool {
	p.value = appendBounded(p.value, r)
	p.valueIndex++
	if p.metaContent && metaRefreshURLStarts(p.value) {
		p.metaURLStart = p.valueIndex
	}
	if p.js == nil {
		return true
	}
	for _, decoded := range p.entity.process(r) {
		p.js.processRune(decoded, p.line, p.column)
		if p.js.err != nil {
			p.errMsg = p.js.err.Msg
			return false
		}
	}
	return true
}

// tagComplete handles the '>' closing a tag. Raw text elements switch to
// cdata parsing, everything else returns to text.
func (p *HTMLParser) tagComplete() htmlState {
	p.clearAttribute()
	if !p.closingTag && cdataElement(p.tag) {
		p.cdataClose = ""
		if isScriptElement(p.tag) {
			p.js = NewJavascriptParser()
		}
		return cdataTextState
	}
	p.tag = ""
	p.closingTag = false
	return textState
}

func (p *HTMLParser) textStateParser(r rune) (bool, htmlState) {
	if r == '<' {
		return false, tagStartState
	}
	return false, textState
}

func (p *HTMLParser) tagStartStateParser(r rune) (bool, htmlState) {
	switch {
	case r == '!':
		return false, declStartState
	case r == '?':
		return false, piState
	case r == '/':
		return false, closeTagOpenState
	case isTagNameStart(r):
		p.startTag(false)
		return true, tagNameState
	default:
		return true, textState
	}
}

func (p *HTMLParser) closeTagOpenStateParser(r rune) (bool, htmlState) {
	switch {
	case isTagNameStart(r):
		p.startTag(true)
		return true, tagNameState
	case r == '>':
		return false, textState
	default:
		return false, declBodyState
	}
}

func (p *HTMLParser) tagNameStateParser(r rune) (bool, htmlState) {
	switch {
	case isTagNameChar(r):
		p.tag = appendBounded(p.tag, toLowerASCII(r))
		return false, tagNameState
	case isHTMLSpace(r), r == '/':
		return false, tagSpaceState
	case r == '>':
		return false, p.tagComplete()
	default:
		return p.fail("unexpected character %q in tag name", r)
	}
}

func (p *HTMLParser) tagSpaceStateParser(r rune) (bool, htmlState) {
	switch {
	case isHTMLSpace(r), r == '/':
		return false, tagSpaceState
	case r == '>':
		return false, p.tagComplete()
	case isAttrNameChar(r):
		p.clearAttribute()
		return true, attrNameState
	default:
		return p.fail("unexpected character %q before attribute name", r)
	}
}

func (p *HTMLParser) attrNameStateParser(r rune) (bool, htmlState) {
	switch {
	case isAttrNameChar(r):
		p.attr = appendBounded(p.attr, toLowerASCII(r))
		return false, attrNameState
	case isHTMLSpace(r):
		p.finishAttributeName()
		return false, attrSpaceState
	case r == '=':
		p.finishAttributeName()
		return false, valueState
	case r == '/':
		p.finishAttributeName()
		return false, tagSpaceState
	case r == '>':
		return false, p.tagComplete()
	default:
		return p.fail("unexpected character %q in attribute name", r)
	}
}

func (p *HTMLParser) attrSpaceStateParser(r rune) (bool, htmlState) {
	switch {
	case isHTMLSpace(r):
		return false, attrSpaceState
	case r == '=':
		return false, valueState
	case r == '/':
		return false, tagSpaceState
	case r == '>':
		return false, p.tagComplete()
	case isAttrNameChar(r):
		p.clearAttribute()
		return true, attrNameState
	default:
		return p.fail("unexpected character %q after attribute name", r)
	}
}

func (p *HTMLParser) valueStateParser(r rune) (bool, htmlState) {
	switch {
	case isHTMLSpace(r):
		return false, valueState
	case r == '"':
		p.enterValue()
		return false, valueDQState
	case r == '\'':
		p.enterValue()
		return false, valueQState
	case r == '>':
		return false, p.tagComplete()
	default:
		p.enterValue()
		return true, valueTextState
	}
}

func (p *HTMLParser) valueTextStateParser(r rune) (bool, htmlState) {
	switch {
	case isHTMLSpace(r):
		p.exitValue()
		return false, tagSpaceState
	case r == '>':
		p.exitValue()
		return false, p.tagComplete()
	}
	if !p.appendValue(r) {
		return false, errorState
	}
	return false, valueTextState
}

func (p *HTMLParser) valueQStateParser(r rune) (bool, htmlState) {
	if r == '\'' {
		p.exitValue()
		return false, tagSpaceState
	}
	if !p.appendValue(r) {
		return false, errorState
	}
	return false, valueQState
}

func (p *HTMLParser) valueDQStateParser(r rune) (bool, htmlState) {
	if r == '"' {
		p.exitValue()
		return false, tagSpaceState
	}
	if !p.appendValue(r) {
		return false, errorState
	}
	return false, valueDQState
}

func (p *HTMLParser) declStartStateParser(r rune) (bool, htmlState) {
	switch r {
	case '-':
		return false, commentOpenState
	case '>':
		return false, textState
	default:
		return false, declBodyState
	}
}

func (p *HTMLParser) declBodyStateParser(r rune) (bool, htmlState) {
	if r == '>' {
		return false, textState
	}
	return false, declBodyState
}

func (p *HTMLParser) commentOpenStateParser(r rune) (bool, htmlState) {
	switch r {
	case '-':
		return false, commentBodyState
	case '>':
		return false, textState
	default:
		return false, declBodyState
	}
}

func (p *HTMLParser) commentBodyStateParser(r rune) (bool, htmlState) {
	if r == '-' {
		return false, commentDashState
	}
	return false, commentBodyState
}

func (p *HTMLParser) commentDashStateParser(r rune) (bool, htmlState) {
	if r == '-' {
		return false, commentDashDashState
	}
	return false, commentBodyState
}

func (p *HTMLParser) commentDashDashStateParser(r rune) (bool, htmlState) {
	switch r {
	case '>':
		return false, textState
	case '-':
		return false, commentDashDashState
	default:
		return false, commentBodyState
	}
}

func (p *HTMLParser) piStateParser(r rune) (bool, htmlState) {
	if r == '?' {
		return false, piMayEndState
	}
	return false, piState
}

func (p *HTMLParser) piMayEndStateParser(r rune) (bool, htmlState) {
	switch r {
	case '>':
		return false, textState
	case '?':
		return false, piMayEndState
	default:
		return false, piState
	}
}

func (p *HTMLParser) cdataTextStateParser(r rune) (bool, htmlState) {
	if r == '<' {
		return false, cdataLessThanSignState
	}
	return false, cdataTextState
}

func (p *HTMLParser) cdataLessThanSignStateParser(r rune) (bool, htmlState) {
	if r == '/' {
		p.cdataClose = ""
		return false, cdataMayCloseState
	}
	return true, cdataTextState
}

// cdataMayCloseStateParser matches "</name" against the open raw text
// element. Only the exact name followed by space, '/' or '>' closes it.
func (p *HTMLParser) cdataMayCloseStateParser(r rune) (bool, htmlState) {
	if isTagNameChar(r) {
		p.cdataClose = appendBounded(p.cdataClose, toLowerASCII(r))
		if strings.HasPrefix(p.tag, p.cdataClose) {
			return false, cdataMayCloseState
		}
		return false, cdataTextState
	}
	if p.cdataClose != p.tag || !(isHTMLSpace(r) || r == '/' || r == '>') {
		return true, cdataTextState
	}

	p.js = nil
	p.closingTag = true
	p.cdataClose = ""
	if r == '>' {
		return false, p.tagComplete()
	}
	return false, tagSpaceState
}

func (p *HTMLParser) jsFileStateParser(r rune) (bool, htmlState) {
	return false, jsFileState
}

func (p *HTMLParser) cssFileStateParser(r rune) (bool, htmlState) {
	return false, cssFileState
}

func (p *HTMLParser) errorStateParser(r rune) (bool, htmlState) {
	return false, errorState
}

// feedsJavascript reports whether every character in the current state is
// javascript source, as opposed to attribute values that go through the
// entity filter first.
func (p *HTMLParser) feedsJavascript() bool {
	if p.js == nil {
		return false
	}
	switch p.currentState {
	case jsFileState, cdataTextState, cdataLessThanSignState, cdataMayCloseState:
		return true
	}
	return false
}

func (p *HTMLParser) processRune(r rune) {
	if p.currentState == errorState {
		return
	}
	if p.feedsJavascript() {
		p.js.processRune(r, p.line, p.column)
		if p.js.err != nil {
			p.errMsg = p.js.err.Msg
			p.currentState = errorState
		}
	}

	reconsume := p.currentState != errorState
	for reconsume {
		from := p.currentState
		reconsume, p.currentState = p.stateToParser(p.currentState)(r)
		traceTransition("html", r, from, p.currentState)
	}
	if p.currentState == errorState {
		p.err = newParseError(p.line, p.column, "%s", p.errMsg)
	}
}

func (p *HTMLParser) advancePosition(r rune) {
	if r == '\n' {
		p.line++
		p.column = 1
		return
	}
	p.column++
}

// Parse consumes one character.
func (p *HTMLParser) Parse(r rune) error {
	if p.err != nil {
		return p.err
	}
	p.processRune(r)
	p.advancePosition(r)
	if p.err != nil {
		return p.err
	}
	return nil
}

// ParseString consumes s character by character, stopping at the first
// error.
func (p *HTMLParser) ParseString(s string) error {
	for _, r := range s {
		if err := p.Parse(r); err != nil {
			return err
		}
	}
	return nil
}

// Finish reports an attribute value, comment, tag or javascript construct
// left open at the end of the input. A javascript error takes precedence as
// it is the more specific one. The parser state is not changed.
func (p *HTMLParser) Finish() error {
	if p.err != nil {
		return p.err
	}
	var msg string
	switch p.currentState {
	case valueQState, valueDQState:
		msg = "unterminated attribute value"
	case commentBodyState, commentDashState, commentDashDashState:
		msg = "unterminated comment"
	case tagNameState, tagSpaceState, attrNameState, attrSpaceState, valueState, valueTextState:
		msg = "unterminated tag"
	}
	if p.js != nil {
		if jsMsg := p.js.unterminated(); jsMsg != "" {
			msg = jsMsg
		}
	}
	if msg != "" {
		return newParseError(p.line, p.column, "%s", msg)
	}
	return nil
}

// State returns the external state.
func (p *HTMLParser) State() ExternalState {
	switch p.currentState {
	case tagNameState, tagSpaceState:
		return StateTag
	case attrNameState, attrSpaceState:
		return StateAttr
	case valueState, valueTextState, valueQState, valueDQState:
		return StateValue
	case commentBodyState, commentDashState, commentDashDashState:
		return StateComment
	case jsFileState:
		return StateJSFile
	case cssFileState:
		return StateCSSFile
	case errorState:
		return StateError
	default:
		return StateText
	}
}

func (p *HTMLParser) inCDATA() bool {
	switch p.currentState {
	case cdataTextState, cdataLessThanSignState, cdataMayCloseState:
		return true
	}
	return false
}

// Tag returns the current tag name, lowercase, while inside a tag or inside
// a raw text element such as script. It is empty elsewhere.
func (p *HTMLParser) Tag() string {
	switch p.State() {
	case StateTag, StateAttr, StateValue:
		return p.tag
	}
	if p.inCDATA() {
		return p.tag
	}
	return ""
}

// IsClosingTag reports whether the current tag is an end tag.
func (p *HTMLParser) IsClosingTag() bool {
	return p.closingTag && p.Tag() != ""
}

// Attribute returns the current attribute name, lowercase, while inside an
// attribute name or value.
func (p *HTMLParser) Attribute() string {
	if p.InAttribute() {
		return p.attr
	}
	return ""
}

// Value returns the attribute value parsed so far.
func (p *HTMLParser) Value() string {
	if p.State() == StateValue {
		return p.value
	}
	return ""
}

// ValueIndex returns the number of characters of the current attribute
// value consumed so far, or -1 outside of a value.
func (p *HTMLParser) ValueIndex() int {
	if p.State() == StateValue {
		return p.valueIndex
	}
	return -1
}

func (p *HTMLParser) InAttribute() bool {
	s := p.State()
	return s == StateAttr || s == StateValue
}

// AttributeType returns the type of the current attribute, AttrNone outside
// of attributes. A <meta content> refresh value turns into a URI once its
// "url=" part has been seen.
func (p *HTMLParser) AttributeType() AttributeType {
	if !p.InAttribute() {
		return AttrNone
	}
	if p.metaContent && p.State() == StateValue {
		return metaRefreshType(p.value)
	}
	return p.attrType
}

func (p *HTMLParser) IsAttributeQuoted() bool {
	return p.currentState == valueQState || p.currentState == valueDQState
}

// IsURLStart reports whether the next character is the first one of a URL,
// which is where a scheme has to be validated.
func (p *HTMLParser) IsURLStart() bool {
	if p.State() != StateValue {
		return false
	}
	if p.metaContent {
		return p.metaURLStart == p.valueIndex
	}
	return p.attrType == AttrURI && p.valueIndex == 0
}

func (p *HTMLParser) InJavascript() bool {
	switch p.State() {
	case StateJSFile:
		return true
	case StateValue:
		return p.attrType == AttrJS
	}
	return p.inCDATA() && isScriptElement(p.tag)
}

// IsJavascriptQuoted reports whether the next character lands inside a
// javascript string literal.
func (p *HTMLParser) IsJavascriptQuoted() bool {
	if !p.InJavascript() {
		return false
	}
	s := p.JavascriptState()
	return s == JSStateQ || s == JSStateDQ
}

func (p *HTMLParser) InCSS() bool {
	switch p.State() {
	case StateCSSFile:
		return true
	case StateValue:
		return p.attrType == AttrStyle
	}
	return p.inCDATA() && isStyleElement(p.tag)
}

// JavascriptState returns the state of the embedded javascript parser, or
// JSStateText when no javascript context is active.
func (p *HTMLParser) JavascriptState() ExternalState {
	if p.js == nil {
		return JSStateText
	}
	return p.js.State()
}

// InsertText tells the parser that text it did not see was emitted at the
// current position, e.g. the output of an opaque template include. An empty
// unquoted value becomes a started value and the URL start is left behind.
func (p *HTMLParser) InsertText() {
	switch p.currentState {
	case valueState:
		p.enterValue()
		p.currentState = valueTextState
		p.valueIndex++
		if p.js != nil {
			p.js.InsertText()
		}
	case valueTextState, valueQState, valueDQState:
		p.valueIndex++
		if p.js != nil {
			p.js.InsertText()
		}
	case jsFileState, cdataTextState:
		if p.js != nil {
			p.js.InsertText()
		}
	}
}

func (p *HTMLParser) LineNumber() int         { return p.line }
func (p *HTMLParser) ColumnNumber() int       { return p.column }
func (p *HTMLParser) SetLineNumber(line int)  { p.line = line }
func (p *HTMLParser) SetColumnNumber(col int) { p.column = col }
