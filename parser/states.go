package parser

// ExternalState is the coarse state a parser reports to its callers. The
// internal states of both parsers map many-to-one onto these values, and the
// escaping decision for a template variable is made from them.
type ExternalState uint8

const (
	// StateText is plain HTML character data.
	StateText ExternalState = iota
	// StateTag is inside a tag, before or between attributes.
	StateTag
	// StateAttr is inside an attribute name.
	StateAttr
	// StateValue is inside an attribute value, quoted or not.
	StateValue
	// StateComment is inside an <!-- HTML comment -->.
	StateComment
	// StateJSFile is top level javascript, entered through ResetMode(ModeJS).
	StateJSFile
	// StateCSSFile is top level css, entered through ResetMode(ModeCSS).
	StateCSSFile

	// JSStateText is javascript outside any literal or comment.
	JSStateText
	// JSStateQ is inside a single quoted javascript string.
	JSStateQ
	// JSStateDQ is inside a double quoted javascript string.
	JSStateDQ
	// JSStateRegexp is inside a javascript regular expression literal.
	JSStateRegexp
	// JSStateComment is inside a javascript line or block comment.
	JSStateComment

	// StateError is shared by both parsers and is terminal.
	StateError
)

var externalStateNames = [...]string{
	StateText:      "STATE_TEXT",
	StateTag:       "STATE_TAG",
	StateAttr:      "STATE_ATTR",
	StateValue:     "STATE_VALUE",
	StateComment:   "STATE_COMMENT",
	StateJSFile:    "STATE_JS_FILE",
	StateCSSFile:   "STATE_CSS_FILE",
	JSStateText:    "STATE_JS_TEXT",
	JSStateQ:       "STATE_JS_Q",
	JSStateDQ:      "STATE_JS_DQ",
	JSStateRegexp:  "STATE_JS_REGEXP",
	JSStateComment: "STATE_JS_COMMENT",
	StateError:     "STATE_ERROR",
}

func (s ExternalState) String() string {
	if int(s) < len(externalStateNames) {
		return externalStateNames[s]
	}
	return "STATE_UNKNOWN"
}

// AttributeType classifies the value of the attribute currently being
// parsed, which decides the escaping rules that apply to it.
type AttributeType uint8

const (
	AttrNone AttributeType = iota
	AttrRegular
	AttrURI
	AttrJS
	AttrStyle
)

func (t AttributeType) String() string {
	switch t {
	case AttrNone:
		return "NONE"
	case AttrRegular:
		return "REGULAR"
	case AttrURI:
		return "URI"
	case AttrJS:
		return "JS"
	case AttrStyle:
		return "STYLE"
	}
	return "UNKNOWN"
}

// Mode is the top level context a parser starts in.
type Mode uint8

const (
	ModeHTML Mode = iota
	ModeJS
	ModeCSS
	// ModeHTMLInTag starts inside an open tag, where attributes are expected.
	ModeHTMLInTag
)

var modeNames = map[Mode]string{
	ModeHTML:      "html",
	ModeJS:        "js",
	ModeCSS:       "css",
	ModeHTMLInTag: "html_in_tag",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode returns the Mode for its lowercase name, as printed by
// Mode.String.
func ParseMode(name string) (Mode, bool) {
	for m, n := range modeNames {
		if n == name {
			return m, true
		}
	}
	return ModeHTML, false
}
