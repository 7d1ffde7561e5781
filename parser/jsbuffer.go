package parser

// jsBufferSize bounds the javascript lookback. It has to hold the longest
// regexp preceding keyword plus surrounding punctuation.
const jsBufferSize = 18

// jsOperand stands in for a string or regexp literal, or for inserted
// template content, so that a following '/' reads as division.
const jsOperand = '0'

// regexpPrecederKeywords are the keywords after which a '/' starts a regular
// expression literal instead of a division.
var regexpPrecederKeywords = map[string]bool{
	"break":      true,
	"case":       true,
	"continue":   true,
	"delete":     true,
	"do":         true,
	"else":       true,
	"finally":    true,
	"in":         true,
	"instanceof": true,
	"new":        true,
	"return":     true,
	"throw":      true,
	"try":        true,
	"typeof":     true,
	"void":       true,
	"yield":      true,
}

// jsBuffer is a fixed size ring of the most recent significant javascript
// characters. Runs of whitespace are stored as a single space. It is a plain
// value so copying it copies the contents.
type jsBuffer struct {
	runes  [jsBufferSize]rune
	start  int
	length int
}

func (b *jsBuffer) reset() {
	*b = jsBuffer{}
}

// at returns the i-th oldest rune held.
func (b *jsBuffer) at(i int) rune {
	return b.runes[(b.start+i)%jsBufferSize]
}

func (b *jsBuffer) push(r rune) {
	if isJSSpace(r) {
		if b.length == 0 || b.at(b.length-1) == ' ' {
			return
		}
		r = ' '
	}
	if b.length < jsBufferSize {
		b.runes[(b.start+b.length)%jsBufferSize] = r
		b.length++
		return
	}
	b.runes[b.start] = r
	b.start = (b.start + 1) % jsBufferSize
}

func (b *jsBuffer) String() string {
	out := make([]rune, b.length)
	for i := range out {
		out[i] = b.at(i)
	}
	return string(out)
}

// slashStartsRegexp decides whether a '/' following the buffered input opens
// a regular expression literal. The rules follow the previous significant
// token: operands and closing brackets are followed by division, operators,
// opening punctuation and the keywords above by a regexp.
func (b *jsBuffer) slashStartsRegexp() bool {
	i := b.length - 1
	if i >= 0 && b.at(i) == ' ' {
		i--
	}
	if i < 0 {
		return true
	}

	c := b.at(i)
	if isJSIdentifierChar(c) {
		j := i
		for j > 0 && isJSIdentifierChar(b.at(j-1)) {
			j--
		}
		word := make([]rune, 0, i-j+1)
		for k := j; k <= i; k++ {
			word = append(word, b.at(k))
		}
		return regexpPrecederKeywords[string(word)]
	}

	switch c {
	case ')', ']':
		return false
	case '+', '-':
		// "++" and "--" end an operand, "+" and "-" are operators. "---" is "-- -".
		j := i
		for j >= 0 && b.at(j) == c {
			j--
		}
		return (i-j)%2 == 1
	case '.':
		if i > 0 && isASCIIDigit(b.at(i-1)) {
			return false
		}
		return true
	default:
		return true
	}
}
