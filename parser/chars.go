package parser

// Character classes shared by the html and javascript state machines.

func isHTMLSpace(r rune) bool {
	switch r {
	case '\u0009', '\u000A', '\u000B', '\u000C', '\u000D', ' ':
		return true
	default:
		return false
	}
}

func isJSSpace(r rune) bool {
	switch r {
	case '\u0009', '\u000A', '\u000B', '\u000C', '\u000D', ' ', '\u00A0', '\u2028', '\u2029', '\uFEFF':
		return true
	default:
		return false
	}
}

func isQuote(r rune) bool {
	return r == '"' || r == '\''
}

func isASCIIAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isTagNameStart reports whether r may open a tag name after '<'. Anything
// else leaves the '<' as text.
func isTagNameStart(r rune) bool {
	return isASCIIAlpha(r) || r == '_' || r == ':'
}

func isTagNameChar(r rune) bool {
	return isASCIIAlpha(r) || isASCIIDigit(r) || r == '_' || r == ':' || r == '-' || r == '.'
}

// isAttrNameChar: everything but space, quotes, NUL, '<', '>', '/' and '='
// continues an attribute name.
func isAttrNameChar(r rune) bool {
	if isHTMLSpace(r) || isQuote(r) {
		return false
	}
	switch r {
	case '<', '>', '/', '=', '\u0000':
		return false
	}
	return true
}

func isJSIdentifierChar(r rune) bool {
	return isASCIIAlpha(r) || isASCIIDigit(r) || r == '_' || r == '$' || (r > 0x7F && !isJSSpace(r))
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 0x20
	}
	return r
}
