package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// MarshalOrderedJSON writes the document as compact JSON in document order.
// Strings are written without HTML escaping.
func (d *Document) MarshalOrderedJSON() ([]byte, error) {
	return MarshalNodeJSON(d.root)
}

// MarshalOrderedJSONIndent writes the document as indented JSON in document
// order, followed by a trailing newline.
func (d *Document) MarshalOrderedJSONIndent(prefix, indent string) ([]byte, error) {
	data, err := d.MarshalOrderedJSON()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, prefix, indent); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// MarshalOrderedYAML writes the document as block-style YAML in document order.
func (d *Document) MarshalOrderedYAML() ([]byte, error) {
	out := CloneNode(d.root)
	resetStyle(out)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalNodeJSON writes a single node tree as compact JSON.
func MarshalNodeJSON(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	w := jsonWriter{buf: &buf, enc: json.NewEncoder(&buf)}
	w.enc.SetEscapeHTML(false)
	if err := w.node(n, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonWriter struct {
	buf *bytes.Buffer
	enc *json.Encoder
}

func (w *jsonWriter) node(n *yaml.Node, path string) error {
	if n == nil {
		w.buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.buf.WriteString("null")
			return nil
		}
		return w.node(n.Content[0], path)

	case yaml.AliasNode:
		return w.node(n.Alias, path)

	case yaml.MappingNode:
		w.buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return &oaserrors.ParseError{
					Path:    path,
					Line:    key.Line,
					Column:  key.Column,
					Message: fmt.Sprintf("object key must be a scalar, got %s", KindName(key)),
				}
			}
			if err := w.string(key.Value); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.node(n.Content[i+1], JoinPath(path, key.Value)); err != nil {
				return err
			}
		}
		w.buf.WriteByte('}')
		return nil

	case yaml.SequenceNode:
		w.buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.node(c, IndexPath(path, i)); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil

	case yaml.ScalarNode:
		return w.scalar(n, path)
	}
	return &oaserrors.ParseError{Path: path, Line: n.Line, Column: n.Column, Message: "unsupported node kind"}
}

func (w *jsonWriter) scalar(n *yaml.Node, path string) error {
	switch n.ShortTag() {
	case "!!null":
		w.buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return w.scalarErr(n, path, err)
		}
		w.buf.WriteString(strconv.FormatBool(b))
	case "!!int":
		if jsonNumber.MatchString(n.Value) {
			w.buf.WriteString(n.Value)
			return nil
		}
		var i int64
		if err := n.Decode(&i); err != nil {
			var u uint64
			if uerr := n.Decode(&u); uerr != nil {
				return w.scalarErr(n, path, err)
			}
			w.buf.WriteString(strconv.FormatUint(u, 10))
			return nil
		}
		w.buf.WriteString(strconv.FormatInt(i, 10))
	case "!!float":
		if jsonNumber.MatchString(n.Value) {
			w.buf.WriteString(n.Value)
			return nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return w.scalarErr(n, path, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &oaserrors.ParseError{
				Path:    path,
				Line:    n.Line,
				Column:  n.Column,
				Message: fmt.Sprintf("%s cannot be represented in JSON", n.Value),
			}
		}
		w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		return w.string(n.Value)
	}
	return nil
}

func (w *jsonWriter) scalarErr(n *yaml.Node, path string, err error) error {
	return &oaserrors.ParseError{
		Path:    path,
		Line:    n.Line,
		Column:  n.Column,
		Message: fmt.Sprintf("invalid %s value %q", n.ShortTag(), n.Value),
		Cause:   err,
	}
}

// string writes s as a JSON string. Encode appends a newline, which is dropped.
func (w *jsonWriter) string(s string) error {
	if err := w.enc.Encode(s); err != nil {
		return err
	}
	w.buf.Truncate(w.buf.Len() - 1)
	return nil
}

// resetStyle clears flow and quoting styles inherited from JSON input so the
// encoder picks block style and quotes only where YAML requires it.
func resetStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		resetStyle(c)
	}
}
