package autoescape

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

type nodeType uint8

const (
	textNode nodeType = iota
	variableNode
	rawNode
	callNode
)

type node struct {
	nodeType nodeType
	text     string
	line     int
}

// Template is a minimal template: literal text, {{name}} variables which
// are auto-escaped, {{raw name}} variables which are emitted as is, and
// {{call name}} macro calls.
type Template struct {
	Name  string
	nodes []node
}

const (
	leftDelim  = "{{"
	rightDelim = "}}"
)

// ParseTemplate splits src into text and actions.
func ParseTemplate(name, src string) (*Template, error) {
	t := &Template{Name: name}
	line := 1
	for len(src) > 0 {
		i := strings.Index(src, leftDelim)
		if i < 0 {
			t.nodes = append(t.nodes, node{nodeType: textNode, text: src, line: line})
			break
		}
		if i > 0 {
			t.nodes = append(t.nodes, node{nodeType: textNode, text: src[:i], line: line})
			line += strings.Count(src[:i], "\n")
		}
		src = src[i+len(leftDelim):]

		j := strings.Index(src, rightDelim)
		if j < 0 {
			return nil, errors.Errorf("%s:%d: unclosed action", name, line)
		}
		n, err := parseAction(strings.TrimSpace(src[:j]))
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, line)
		}
		n.line = line
		t.nodes = append(t.nodes, n)
		line += strings.Count(src[:j], "\n")
		src = src[j+len(rightDelim):]
	}
	return t, nil
}

func parseAction(action string) (node, error) {
	fields := strings.Fields(action)
	switch {
	case len(fields) == 1:
		return node{nodeType: variableNode, text: fields[0]}, nil
	case len(fields) == 2 && fields[0] == "raw":
		return node{nodeType: rawNode, text: fields[1]}, nil
	case len(fields) == 2 && fields[0] == "call":
		return node{nodeType: callNode, text: fields[1]}, nil
	case len(fields) == 0:
		return node{}, errors.New("empty action")
	default:
		return node{}, errors.Errorf("unknown action %q", action)
	}
}

// Variables returns the names of the variables used by t, in order.
func (t *Template) Variables() []string {
	var names []string
	for _, n := range t.nodes {
		if n.nodeType == variableNode || n.nodeType == rawNode {
			names = append(names, n.text)
		}
	}
	return names
}

// Execute renders t to w through e. The render is one runtime auto-escaping
// pass, so it has to end in the context it started in. Missing variables
// render as empty strings.
func (t *Template) Execute(w io.Writer, e *Escaper, data map[string]string, macros map[string]*Template) error {
	if err := e.StartRuntimeAutoEscaping(); err != nil {
		return err
	}
	err := t.execute(w, e, data, macros)
	stopErr := e.StopRuntimeAutoEscaping()
	if err != nil {
		return err
	}
	return stopErr
}

func (t *Template) execute(w io.Writer, e *Escaper, data map[string]string, macros map[string]*Template) error {
	if err := e.PushInclude(t.Name); err != nil {
		return err
	}
	defer e.PopInclude()

	for _, n := range t.nodes {
		var out string
		switch n.nodeType {
		case textNode:
			if err := e.ParseData(n.text); err != nil {
				return errors.Wrapf(err, "%s:%d", t.Name, n.line)
			}
			out = n.text
		case variableNode:
			escaped, err := e.EscapeVariable(n.text, data[n.text])
			if err != nil {
				return errors.Wrapf(err, "%s:%d: variable %q", t.Name, n.line, n.text)
			}
			out = escaped
		case rawNode:
			out = data[n.text]
			if out != "" {
				if err := e.InsertText(); err != nil {
					return err
				}
			}
		case callNode:
			macro, ok := macros[n.text]
			if !ok {
				return errors.Errorf("%s:%d: undefined macro %q", t.Name, n.line, n.text)
			}
			entry := e.Context()
			if err := macro.execute(w, e, data, macros); err != nil {
				return err
			}
			if exit := e.Context(); exit != entry {
				return &ConsistencyError{Name: macro.Name, Entry: entry, Exit: exit}
			}
			continue
		}
		if _, err := io.WriteString(w, out); err != nil {
			return errors.Wrap(err, "writing output")
		}
	}
	return nil
}
