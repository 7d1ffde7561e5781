// Package autoescape drives an HTML parser across the output of a template
// render and picks the escaping function for every variable from the
// context the variable lands in.
package autoescape

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/streamparser/parser"
	"github.com/heathj/streamparser/parser/factory"
)

// DefaultMaxIncludeDepth bounds nested includes and macro calls.
const DefaultMaxIncludeDepth = 64

var (
	ErrAlreadyActive    = errors.New("runtime auto-escaping is already active")
	ErrNotActive        = errors.New("runtime auto-escaping is not active")
	ErrRecursiveInclude = errors.New("recursive include")
	ErrIncludeDepth     = errors.New("include depth exceeded")
)

// ConsistencyError reports that a section of output, a macro call or a
// whole runtime auto-escaping pass, left the parser in a different context
// than it entered it. Everything emitted after it would be escaped for the
// wrong context.
type ConsistencyError struct {
	Name  string
	Entry Context
	Exit  Context
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("auto-escaping context of %q changed from %s to %s", e.Name, e.Entry, e.Exit)
}

// Decision records the escaping function chosen for one variable.
type Decision struct {
	Name    string
	Func    Func
	Context Context
	Line    int
	Column  int
}

// Escaper owns the parser of one render. It is not safe for concurrent use.
type Escaper struct {
	parser          *parser.HTMLParser
	active          bool
	entry           Context
	includes        []string
	maxIncludeDepth int
	record          bool
	decisions       []Decision
	log             *logrus.Entry
}

// Option configures an Escaper.
type Option func(*Escaper)

func WithMaxIncludeDepth(depth int) Option {
	return func(e *Escaper) {
		e.maxIncludeDepth = depth
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(e *Escaper) {
		e.log = entry
	}
}

// WithRecording keeps a Decision for every escaped variable.
func WithRecording() Option {
	return func(e *Escaper) {
		e.record = true
	}
}

func newEscaper(p *parser.HTMLParser, opts []Option) *Escaper {
	e := &Escaper{
		parser:          p,
		maxIncludeDepth: DefaultMaxIncludeDepth,
		log:             logrus.WithField("pkg", "autoescape"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New creates an Escaper for output that starts at the top level of mode.
func New(mode parser.Mode, opts ...Option) (*Escaper, error) {
	p, err := factory.CreateParserInMode(mode)
	if err != nil {
		return nil, errors.Wrap(err, "creating parser")
	}
	return newEscaper(p, opts), nil
}

// NewInAttribute creates an Escaper for output that starts inside an
// attribute value, e.g. a template included as <a href="{{include}}">.
func NewInAttribute(attrType parser.AttributeType, quoted bool, opts ...Option) (*Escaper, error) {
	p, err := factory.CreateParserInAttribute(attrType, quoted)
	if err != nil {
		return nil, errors.Wrap(err, "creating parser")
	}
	return newEscaper(p, opts), nil
}

// NewFromParser creates an Escaper that continues from a copy of p. p is
// left untouched.
func NewFromParser(p *parser.HTMLParser, opts ...Option) *Escaper {
	return newEscaper(factory.CloneParser(p), opts)
}

// StartRuntimeAutoEscaping begins a pass. It is not reentrant.
func (e *Escaper) StartRuntimeAutoEscaping() error {
	if e.active {
		return ErrAlreadyActive
	}
	e.active = true
	e.entry = e.Context()
	e.log.WithField("context", e.entry).Debug("runtime auto-escaping started")
	return nil
}

// StopRuntimeAutoEscaping ends a pass. The pass must end in the context it
// started in, otherwise a *ConsistencyError is returned. The escaper is
// inactive afterwards either way.
func (e *Escaper) StopRuntimeAutoEscaping() error {
	if !e.active {
		return ErrNotActive
	}
	e.active = false
	exit := e.Context()
	if exit != e.entry {
		return &ConsistencyError{Name: "runtime auto-escaping", Entry: e.entry, Exit: exit}
	}
	e.log.WithField("context", exit).Debug("runtime auto-escaping stopped")
	return nil
}

func (e *Escaper) Active() bool {
	return e.active
}

// ParseData feeds emitted template text to the parser.
func (e *Escaper) ParseData(text string) error {
	if !e.active {
		return ErrNotActive
	}
	if err := e.parser.ParseString(text); err != nil {
		return errors.Wrap(err, "parsing template text")
	}
	return nil
}

// InsertText records output that was emitted without being parsed.
func (e *Escaper) InsertText() error {
	if !e.active {
		return ErrNotActive
	}
	e.parser.InsertText()
	return nil
}

// Context returns the current escaping context.
func (e *Escaper) Context() Context {
	return contextOf(e.parser)
}

// CurrentFunction returns the escaping function for a variable emitted at
// the current position.
func (e *Escaper) CurrentFunction() (Func, error) {
	if e.parser.State() == parser.StateError {
		return FuncNone, errors.New("parser is in the error state, no escaping function is safe")
	}
	return funcFor(e.parser), nil
}

// Escape escapes value for the current position and records it as emitted.
func (e *Escaper) Escape(value string) (string, error) {
	return e.EscapeVariable("", value)
}

// EscapeVariable is Escape for a named variable, which is what decisions
// are recorded under.
func (e *Escaper) EscapeVariable(name, value string) (string, error) {
	if !e.active {
		return "", ErrNotActive
	}
	fn, err := e.CurrentFunction()
	if err != nil {
		return "", err
	}
	ctx := e.Context()
	e.log.WithFields(logrus.Fields{
		"variable": name,
		"func":     fn,
		"context":  ctx,
	}).Debug("escaping variable")
	if e.record {
		e.decisions = append(e.decisions, Decision{
			Name:    name,
			Func:    fn,
			Context: ctx,
			Line:    e.parser.LineNumber(),
			Column:  e.parser.ColumnNumber(),
		})
	}

	out := fn.Apply(value)
	if out != "" {
		e.parser.InsertText()
	}
	return out, nil
}

// Decisions returns what was recorded with WithRecording.
func (e *Escaper) Decisions() []Decision {
	return e.decisions
}

// PushInclude enters the named template. Entering a template that is
// already on the stack is an error, as is nesting deeper than the limit.
func (e *Escaper) PushInclude(name string) error {
	for _, open := range e.includes {
		if open == name {
			return errors.Wrapf(ErrRecursiveInclude, "%q", name)
		}
	}
	if len(e.includes) >= e.maxIncludeDepth {
		return errors.Wrapf(ErrIncludeDepth, "%q at depth %d", name, len(e.includes))
	}
	e.includes = append(e.includes, name)
	return nil
}

// PopInclude leaves the innermost template.
func (e *Escaper) PopInclude() {
	if len(e.includes) > 0 {
		e.includes = e.includes[:len(e.includes)-1]
	}
}

// Finish reports constructs left open at the end of the output.
func (e *Escaper) Finish() error {
	return e.parser.Finish()
}
