package parser

import "golang.org/x/net/html"

// maxEntityLength is the longest character reference the filter buffers
// before giving up and passing the text through.
const maxEntityLength = 10

// entityFilter decodes HTML character references in attribute values before
// the characters reach the javascript parser, the way a browser decodes
// onclick="a=&quot;x&quot;" before running it.
type entityFilter struct {
	buf      []rune
	inEntity bool
}

func (f *entityFilter) reset() {
	f.buf = f.buf[:0]
	f.inEntity = false
}

func (f *entityFilter) clone() entityFilter {
	c := entityFilter{inEntity: f.inEntity}
	c.buf = append([]rune(nil), f.buf...)
	return c
}

// process returns the characters that r completes. It returns nothing while
// a reference is being buffered.
func (f *entityFilter) process(r rune) []rune {
	if !f.inEntity {
		if r == '&' {
			f.inEntity = true
			f.buf = append(f.buf[:0], r)
			return nil
		}
		return []rune{r}
	}

	if r == ';' {
		f.buf = append(f.buf, r)
		out := []rune(html.UnescapeString(string(f.buf)))
		f.reset()
		return out
	}
	if isASCIIAlpha(r) || isASCIIDigit(r) || (r == '#' && len(f.buf) == 1) {
		f.buf = append(f.buf, r)
		if len(f.buf) <= maxEntityLength {
			return nil
		}
		out := append([]rune(nil), f.buf...)
		f.reset()
		return out
	}

	// Unterminated references decode as far as the html5 legacy rules allow.
	out := []rune(html.UnescapeString(string(f.buf)))
	f.reset()
	if r == '&' {
		f.inEntity = true
		f.buf = append(f.buf, r)
		return out
	}
	return append(out, r)
}
