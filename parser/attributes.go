package parser

import (
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html/atom"
)

// uriAttributes hold values that are interpreted as URLs.
var uriAttributes = map[string]bool{
	"action":     true,
	"archive":    true,
	"background": true,
	"cite":       true,
	"classid":    true,
	"codebase":   true,
	"data":       true,
	"dsync":      true,
	"dynsrc":     true,
	"formaction": true,
	"href":       true,
	"icon":       true,
	"longdesc":   true,
	"lowsrc":     true,
	"manifest":   true,
	"poster":     true,
	"profile":    true,
	"src":        true,
	"srcset":     true,
	"usemap":     true,
}

// classifyAttribute returns the type of a complete, lowercase attribute
// name. A namespace prefix is ignored, so xlink:href is a URI.
func classifyAttribute(name string) AttributeType {
	if name == "" {
		return AttrNone
	}
	if i := strings.LastIndexByte(name, ':'); i >= 0 && !strings.HasPrefix(name, "xmlns") {
		name = name[i+1:]
	}
	switch {
	case strings.HasPrefix(name, "on"):
		return AttrJS
	case name == "style":
		return AttrStyle
	case uriAttributes[name]:
		return AttrURI
	default:
		return AttrRegular
	}
}

// cdataElement reports whether the content of tag is raw text that only the
// matching end tag closes.
func cdataElement(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Script, atom.Style, atom.Textarea, atom.Title, atom.Xmp:
		return true
	}
	return false
}

func isScriptElement(tag string) bool {
	return atom.Lookup([]byte(tag)) == atom.Script
}

func isStyleElement(tag string) bool {
	return atom.Lookup([]byte(tag)) == atom.Style
}

// isMetaContent reports whether attr on tag is <meta content>, which holds a
// URL after "url=" in a refresh directive.
func isMetaContent(tag, attr string) bool {
	return attr == "content" && atom.Lookup([]byte(tag)) == atom.Meta
}

var (
	metaRefreshURL      = regexp2.MustCompile(`^\s*[0-9.]*\s*[;,]\s*url\s*=`, regexp2.IgnoreCase)
	metaRefreshURLStart = regexp2.MustCompile(`^\s*[0-9.]*\s*[;,]\s*url\s*=\s*$`, regexp2.IgnoreCase)
)

func matchString(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

// metaRefreshType classifies the value typed so far of a <meta content>
// attribute. Before "url=" it is a regular value.
func metaRefreshType(value string) AttributeType {
	if matchString(metaRefreshURL, value) {
		return AttrURI
	}
	return AttrRegular
}

func metaRefreshURLStarts(value string) bool {
	return matchString(metaRefreshURLStart, value)
}
