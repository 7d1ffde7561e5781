// Package factory hands out HTML parsers that already sit in a common
// starting context, such as inside a quoted URI attribute. The contexts are
// parsed once at package initialization and every caller gets a deep copy.
package factory

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/streamparser/parser"
)

// ModeOption refines CreateParserInMode.
type ModeOption uint8

const (
	// ModeJSQuoted starts inside a single quoted javascript string. Only
	// valid with parser.ModeJS.
	ModeJSQuoted ModeOption = iota + 1
)

// AttributeOption refines CreateParserInAttribute.
type AttributeOption uint8

const (
	// AttrJSQuoted starts inside a single quoted string of a javascript
	// attribute value.
	AttrJSQuoted AttributeOption = iota + 1
	// AttrURLPartial starts past the beginning of a URI attribute value, so
	// IsURLStart is false.
	AttrURLPartial
)

type attrKey struct {
	attrType parser.AttributeType
	quoted   bool
	option   AttributeOption
}

// primer is a fragment parsed to reach a starting context.
type primer struct {
	mode     parser.Mode
	fragment string
}

var attributePrimers = map[attrKey]primer{
	{parser.AttrRegular, false, 0}:          {parser.ModeHTML, "<xparsertag htmlparser="},
	{parser.AttrRegular, true, 0}:           {parser.ModeHTML, `<xparsertag htmlparser="`},
	{parser.AttrURI, false, 0}:              {parser.ModeHTML, "<xparsertag src="},
	{parser.AttrURI, true, 0}:               {parser.ModeHTML, `<xparsertag src="`},
	{parser.AttrURI, false, AttrURLPartial}: {parser.ModeHTML, "<xparsertag src=http://host/"},
	{parser.AttrURI, true, AttrURLPartial}:  {parser.ModeHTML, `<xparsertag src="http://host/`},
	{parser.AttrJS, false, 0}:               {parser.ModeHTML, "<xparsertag onmouse="},
	{parser.AttrJS, true, 0}:                {parser.ModeHTML, `<xparsertag onmouse="`},
	{parser.AttrJS, false, AttrJSQuoted}:    {parser.ModeHTML, "<xparsertag onmouse=x='"},
	{parser.AttrJS, true, AttrJSQuoted}:     {parser.ModeHTML, `<xparsertag onmouse="'`},
	{parser.AttrStyle, false, 0}:            {parser.ModeHTML, "<xparsertag style="},
	{parser.AttrStyle, true, 0}:             {parser.ModeHTML, `<xparsertag style="`},
}

var jsQuotedPrimer = primer{parser.ModeJS, "'"}

// Factory clones parsers out of a fixed set of primed templates. The
// templates are never handed out or parsed into after construction, so a
// Factory is safe for concurrent use.
type Factory struct {
	inAttribute map[attrKey]*parser.HTMLParser
	inJSQuoted  *parser.HTMLParser
}

func prime(p primer) (*parser.HTMLParser, error) {
	hp := parser.NewHTMLParser()
	if err := hp.ResetMode(p.mode); err != nil {
		return nil, err
	}
	if err := hp.ParseString(p.fragment); err != nil {
		return nil, errors.Wrapf(err, "priming %q", p.fragment)
	}
	hp.SetLineNumber(1)
	hp.SetColumnNumber(1)
	return hp, nil
}

func newFactory(attrPrimers map[attrKey]primer, jsQuoted primer) (*Factory, error) {
	f := &Factory{inAttribute: make(map[attrKey]*parser.HTMLParser, len(attrPrimers))}
	for key, pr := range attrPrimers {
		hp, err := prime(pr)
		if err != nil {
			return nil, err
		}
		if hp.State() != parser.StateValue || hp.AttributeType() != key.attrType || hp.IsAttributeQuoted() != key.quoted {
			return nil, errors.Errorf("priming %q ended in %s %s quoted=%t", pr.fragment, hp.State(), hp.AttributeType(), hp.IsAttributeQuoted())
		}
		if (key.option == AttrJSQuoted) != hp.IsJavascriptQuoted() || (key.attrType == parser.AttrURI && (key.option == AttrURLPartial) == hp.IsURLStart()) {
			return nil, errors.Errorf("priming %q does not match option %d", pr.fragment, key.option)
		}
		f.inAttribute[key] = hp
	}

	hp, err := prime(jsQuoted)
	if err != nil {
		return nil, err
	}
	if !hp.IsJavascriptQuoted() {
		return nil, errors.Errorf("priming %q did not end in a javascript string", jsQuoted.fragment)
	}
	f.inJSQuoted = hp
	return f, nil
}

var (
	defaultFactory *Factory
	initErr        error
)

func init() {
	defaultFactory, initErr = newFactory(attributePrimers, jsQuotedPrimer)
	if initErr != nil {
		logrus.WithError(initErr).Error("parser factory initialization failed")
	}
}

// mustFactory returns the default factory. A failed initialization is a
// programming error in the primers; no parser is handed out in that case.
func mustFactory() *Factory {
	if initErr != nil {
		panic(errors.Wrap(initErr, "parser factory is not initialized"))
	}
	return defaultFactory
}

// CreateParser returns a parser at the top of an HTML document.
func CreateParser() *parser.HTMLParser {
	return mustFactory().CreateParser()
}

// CreateParserInMode returns a parser at the top level of mode.
func CreateParserInMode(mode parser.Mode, opts ...ModeOption) (*parser.HTMLParser, error) {
	return mustFactory().CreateParserInMode(mode, opts...)
}

// CreateParserInAttribute returns a parser positioned at the start of an
// attribute value of the given type.
func CreateParserInAttribute(attrType parser.AttributeType, quoted bool, opts ...AttributeOption) (*parser.HTMLParser, error) {
	return mustFactory().CreateParserInAttribute(attrType, quoted, opts...)
}

// CloneParser returns an independent deep copy of p.
func CloneParser(p *parser.HTMLParser) *parser.HTMLParser {
	mustFactory()
	return p.Clone()
}

func (f *Factory) CreateParser() *parser.HTMLParser {
	return parser.NewHTMLParser()
}

func (f *Factory) CreateParserInMode(mode parser.Mode, opts ...ModeOption) (*parser.HTMLParser, error) {
	jsQuoted := false
	for _, opt := range opts {
		if opt != ModeJSQuoted {
			return nil, errors.Errorf("unknown mode option %d", opt)
		}
		jsQuoted = true
	}
	if jsQuoted {
		if mode != parser.ModeJS {
			return nil, errors.Errorf("javascript quoting requires mode %s, got %s", parser.ModeJS, mode)
		}
		return f.inJSQuoted.Clone(), nil
	}

	p := parser.NewHTMLParser()
	if err := p.ResetMode(mode); err != nil {
		return nil, err
	}
	return p, nil
}

func (f *Factory) CreateParserInAttribute(attrType parser.AttributeType, quoted bool, opts ...AttributeOption) (*parser.HTMLParser, error) {
	key := attrKey{attrType: attrType, quoted: quoted}
	for _, opt := range opts {
		switch {
		case opt == AttrJSQuoted && attrType == parser.AttrJS,
			opt == AttrURLPartial && attrType == parser.AttrURI:
			key.option = opt
		default:
			return nil, errors.Errorf("attribute option %d does not apply to %s attributes", opt, attrType)
		}
	}

	template, ok := f.inAttribute[key]
	if !ok {
		return nil, errors.Errorf("no parser template for %s attributes (quoted=%t)", attrType, quoted)
	}
	return template.Clone(), nil
}
