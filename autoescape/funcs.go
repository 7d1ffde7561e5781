package autoescape

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/transform"
)

// Func is an escaping function. Which one applies to a variable is decided
// by the parser context at the point the variable is emitted.
type Func uint8

const (
	FuncNone Func = iota
	// FuncHTML escapes text and quoted attribute values.
	FuncHTML
	// FuncHTMLUnquoted also escapes the characters that end an unquoted
	// attribute value.
	FuncHTMLUnquoted
	// FuncJSString escapes the content of a javascript string or regexp.
	FuncJSString
	// FuncJSValue lets numbers and booleans through and replaces anything
	// else with null.
	FuncJSValue
	// FuncURL percent-escapes a value placed inside a URL.
	FuncURL
	// FuncURLValidate checks the scheme of a value that starts a URL and
	// normalizes it for an attribute.
	FuncURLValidate
	// FuncStyle drops every character that could leave a css value.
	FuncStyle
	// FuncAttrName checks a value emitted where an attribute name goes.
	FuncAttrName
	// FuncJSStringUnquoted is FuncJSString inside an unquoted attribute
	// value, where a space would end the attribute.
	FuncJSStringUnquoted
	// FuncStyleUnquoted is FuncStyle inside an unquoted attribute value.
	FuncStyleUnquoted
)

// UnsafeReplacement is emitted in place of a value that failed validation.
const UnsafeReplacement = "zSafez"

var funcNames = [...]string{
	FuncNone:             "none",
	FuncHTML:             "html",
	FuncHTMLUnquoted:     "html_unquoted",
	FuncJSString:         "js",
	FuncJSValue:          "js_value",
	FuncURL:              "url",
	FuncURLValidate:      "url_validate",
	FuncStyle:            "style",
	FuncAttrName:         "attr_name",
	FuncJSStringUnquoted: "js_unquoted",
	FuncStyleUnquoted:    "style_unquoted",
}

func (f Func) String() string {
	if int(f) < len(funcNames) {
		return funcNames[f]
	}
	return fmt.Sprintf("Func(%d)", f)
}

// FuncByName returns the function printed as name by Func.String.
func FuncByName(name string) (Func, bool) {
	for f, n := range funcNames {
		if n == name {
			return Func(f), true
		}
	}
	return FuncNone, false
}

// Apply escapes s.
func (f Func) Apply(s string) string {
	switch f {
	case FuncJSValue:
		return validateJSValue(s)
	case FuncURLValidate:
		return validateURL(s)
	case FuncAttrName:
		return validateAttrName(s)
	}
	t := f.Transformer()
	if t == nil {
		return s
	}
	out, _, err := transform.String(t, s)
	if err != nil {
		return UnsafeReplacement
	}
	return out
}

// Transformer returns the streaming form of f, or nil for FuncNone and the
// functions that validate whole values.
func (f Func) Transformer() transform.Transformer {
	switch f {
	case FuncHTML:
		return runeReplacer{replace: htmlReplacement}
	case FuncHTMLUnquoted:
		return runeReplacer{replace: htmlUnquotedReplacement}
	case FuncJSString:
		return runeReplacer{replace: jsStringReplacement}
	case FuncURL:
		return runeReplacer{replace: urlReplacement}
	case FuncStyle:
		return runeReplacer{replace: styleReplacement}
	case FuncJSStringUnquoted:
		return runeReplacer{replace: jsStringUnquotedReplacement}
	case FuncStyleUnquoted:
		return runeReplacer{replace: styleUnquotedReplacement}
	}
	return nil
}

// runeReplacer is a transform.Transformer substituting single runes. The
// replace function reports false to keep a rune as is.
type runeReplacer struct {
	transform.NopResetter
	replace func(r rune) (string, bool)
}

func (t runeReplacer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		out := src[nSrc : nSrc+size]
		if rep, ok := t.replace(r); ok {
			out = []byte(rep)
		}
		if nDst+len(out) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], out)
		nSrc += size
	}
	return nDst, nSrc, nil
}

func htmlReplacement(r rune) (string, bool) {
	switch r {
	case '&':
		return "&amp;", true
	case '<':
		return "&lt;", true
	case '>':
		return "&gt;", true
	case '"':
		return "&#34;", true
	case '\'':
		return "&#39;", true
	case 0:
		return "\uFFFD", true
	}
	return "", false
}

func htmlUnquotedReplacement(r rune) (string, bool) {
	switch r {
	case '\t', '\n', '\f', '\r', ' ', '=', '`':
		return fmt.Sprintf("&#%d;", r), true
	}
	return htmlReplacement(r)
}

func jsStringReplacement(r rune) (string, bool) {
	switch r {
	case '\\':
		return `\\`, true
	case '\n':
		return `\n`, true
	case '\r':
		return `\r`, true
	case '\t':
		return `\t`, true
	case '\'', '"', '<', '>', '&', '=', '/', '`':
		return fmt.Sprintf(`\x%02x`, r), true
	case '\u2028', '\u2029':
		return fmt.Sprintf(`\u%04x`, r), true
	}
	if r < 0x20 || r == 0x7f {
		return fmt.Sprintf(`\x%02x`, r), true
	}
	return "", false
}

// jsStringUnquotedReplacement also hex-escapes the html space characters
// that jsStringReplacement lets through.
func jsStringUnquotedReplacement(r rune) (string, bool) {
	if r == ' ' {
		return `\x20`, true
	}
	return jsStringReplacement(r)
}

func isURLUnreserved(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '-' || r == '.' || r == '_' || r == '~'
}

func percentEncode(r rune) string {
	var b strings.Builder
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, r)
	for _, c := range buf[:n] {
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func urlReplacement(r rune) (string, bool) {
	if isURLUnreserved(r) {
		return "", false
	}
	return percentEncode(r), true
}

// urlNormalizeReplacement keeps URL structure intact and only encodes what
// cannot appear in a URL.
func urlNormalizeReplacement(r rune) (string, bool) {
	if isURLUnreserved(r) || strings.ContainsRune(":/?#[]@!$&()*+,;=%", r) {
		return "", false
	}
	return percentEncode(r), true
}

func styleReplacement(r rune) (string, bool) {
	if isURLUnreserved(r) || strings.ContainsRune("#,% !", r) {
		return "", false
	}
	return "", true
}

func styleUnquotedReplacement(r rune) (string, bool) {
	if r == ' ' {
		return "", true
	}
	return styleReplacement(r)
}

var (
	urlScheme  = regexp2.MustCompile(`^\s*([a-zA-Z][a-zA-Z0-9+.\-]*):`, regexp2.None)
	jsValue    = regexp2.MustCompile(`^(?:[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?|0[xX][0-9a-fA-F]+|true|false)\z`, regexp2.None)
	attrName   = regexp2.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:.\-]*\z`, regexp2.None)
	safeScheme = map[string]bool{"http": true, "https": true, "mailto": true, "ftp": true}
)

func validateJSValue(s string) string {
	if ok, err := jsValue.MatchString(s); err == nil && ok {
		return s
	}
	return "null"
}

// validateURL replaces a URL with a scheme outside the allow list by "#",
// then normalizes and html-escapes it.
func validateURL(s string) string {
	m, err := urlScheme.FindStringMatch(s)
	if err != nil {
		return "#"
	}
	if m != nil && !safeScheme[strings.ToLower(m.GroupByNumber(1).String())] {
		return "#"
	}
	normalized, _, err := transform.String(runeReplacer{replace: urlNormalizeReplacement}, s)
	if err != nil {
		return "#"
	}
	return FuncHTML.Apply(normalized)
}

// validateAttrName lets a value through only if it is a plain attribute
// name that does not introduce script, style or a URL.
func validateAttrName(s string) string {
	ok, err := attrName.MatchString(s)
	if err != nil || !ok {
		return UnsafeReplacement
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "on") || lower == "style" || strings.Contains(lower, "src") || strings.Contains(lower, "href") {
		return UnsafeReplacement
	}
	return s
}
