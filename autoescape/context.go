package autoescape

import (
	"fmt"

	"github.com/heathj/streamparser/parser"
)

// Context is the part of the parser state that decides escaping. Two
// positions with equal Contexts escape variables the same way.
type Context struct {
	State        parser.ExternalState
	AttrType     parser.AttributeType
	AttrQuoted   bool
	InJavascript bool
	JSState      parser.ExternalState
	InCSS        bool
}

func contextOf(p *parser.HTMLParser) Context {
	c := Context{
		State:        p.State(),
		AttrType:     p.AttributeType(),
		AttrQuoted:   p.IsAttributeQuoted(),
		InJavascript: p.InJavascript(),
		InCSS:        p.InCSS(),
	}
	if c.InJavascript {
		c.JSState = p.JavascriptState()
	}
	return c
}

func (c Context) String() string {
	s := fmt.Sprintf("{%s", c.State)
	if c.AttrType != parser.AttrNone {
		s += fmt.Sprintf(" attr=%s quoted=%t", c.AttrType, c.AttrQuoted)
	}
	if c.InJavascript {
		s += " js=" + c.JSState.String()
	}
	if c.InCSS {
		s += " css"
	}
	return s + "}"
}

// funcFor selects the escaping function for a variable emitted at the
// current position of p.
func funcFor(p *parser.HTMLParser) Func {
	switch {
	case p.InJavascript():
		if p.JavascriptState() == parser.JSStateText {
			return FuncJSValue
		}
		if inUnquotedValue(p) {
			return FuncJSStringUnquoted
		}
		return FuncJSString
	case p.InCSS():
		if inUnquotedValue(p) {
			return FuncStyleUnquoted
		}
		return FuncStyle
	}

	switch p.State() {
	case parser.StateValue:
		if p.AttributeType() == parser.AttrURI {
			if p.IsURLStart() {
				return FuncURLValidate
			}
			return FuncURL
		}
		if p.IsAttributeQuoted() {
			return FuncHTML
		}
		return FuncHTMLUnquoted
	case parser.StateTag, parser.StateAttr:
		return FuncAttrName
	default:
		return FuncHTML
	}
}

// inUnquotedValue reports whether a space would end the current attribute
// value.
func inUnquotedValue(p *parser.HTMLParser) bool {
	return p.State() == parser.StateValue && !p.IsAttributeQuoted()
}
