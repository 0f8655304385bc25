// Package document provides an order-preserving OpenAPI document tree.
//
// Documents are decoded into a go.yaml.in/yaml/v4 node tree rather than Go maps,
// so key order, scalar representation, and source positions survive a
// round trip. JSON input is decoded as YAML once the escapes YAML lacks are
// rewritten, so both formats share one decoder.
// Output is produced by walking the tree, which makes it deterministic:
// the same input bytes and the same edits always yield the same output bytes.
//
// A Document is not safe for concurrent use. Callers that need to keep the
// original should [Document.Clone] before editing.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

// SourceFormat represents the format of the source document.
type SourceFormat string

const (
	// SourceFormatJSON indicates the source was JSON
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatYAML indicates the source was YAML
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatUnknown indicates the format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// MaxNodes bounds the size of a decoded tree after alias expansion.
const MaxNodes = 10_000_000

// Document is a parsed OpenAPI document.
type Document struct {
	// Source identifies where the document was loaded from (path, URL, or "<stdin>").
	Source string
	// Format is the detected format of the source bytes.
	Format SourceFormat

	root *yaml.Node
}

// Parse decodes JSON or YAML bytes into a Document.
// The root must be a mapping. Failures are returned as *oaserrors.ParseError.
func Parse(data []byte, source string) (*Document, error) {
	format := DetectFormat(data)
	if format == SourceFormatJSON && json.Valid(data) {
		data = unescapeSolidus(data)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &oaserrors.ParseError{
			Path:    source,
			Message: fmt.Sprintf("invalid %s", format),
			Cause:   err,
		}
	}

	root := &node
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &oaserrors.ParseError{Path: source, Message: "empty document"}
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return nil, &oaserrors.ParseError{Path: source, Message: "empty document"}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{
			Path:    source,
			Line:    root.Line,
			Column:  root.Column,
			Message: fmt.Sprintf("document root must be an object, got %s", KindName(root)),
		}
	}

	expanded, err := expandAliases(root)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: err.Error()}
	}

	return &Document{Source: source, Format: format, root: expanded}, nil
}

// New wraps an existing mapping node as a Document.
// The Document takes ownership of root.
func New(root *yaml.Node, source string) (*Document, error) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{Path: source, Message: "document root must be an object"}
	}
	return &Document{Source: source, Format: SourceFormatUnknown, root: root}, nil
}

// DetectFormat reports whether data looks like JSON or YAML.
func DetectFormat(data []byte) SourceFormat {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return SourceFormatJSON
	}
	return SourceFormatYAML
}

// unescapeSolidus rewrites the JSON escape \/ to a plain slash, which the
// YAML decoder does not accept. data must be valid JSON, so a backslash can
// only appear inside a string and always starts a two-byte escape.
func unescapeSolidus(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\/`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 == len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] != '/' {
			out = append(out, data[i])
		}
		out = append(out, data[i+1])
		i++
	}
	return out
}

// Root returns the root mapping node. Edits through it modify the document.
func (d *Document) Root() *yaml.Node {
	return d.root
}

// Clone returns a deep copy that shares no nodes with d.
func (d *Document) Clone() *Document {
	return &Document{
		Source: d.Source,
		Format: d.Format,
		root:   CloneNode(d.root),
	}
}

// Version returns the value of the "openapi" field, or of "swagger" for 2.0
// documents. It returns "" when neither is present.
func (d *Document) Version() string {
	if v, ok := StringValue(Lookup(d.root, "openapi")); ok {
		return v
	}
	if v, ok := StringValue(Lookup(d.root, "swagger")); ok {
		return v
	}
	return ""
}

// IsOAS2 reports whether the document declares swagger: "2.0".
func (d *Document) IsOAS2() bool {
	_, ok := StringValue(Lookup(d.root, "swagger"))
	return ok && Lookup(d.root, "openapi") == nil
}

// MinorVersion returns the major and minor parts of the declared version.
// ok is false when the version is missing or malformed.
func (d *Document) MinorVersion() (major, minor int, ok bool) {
	parts := strings.SplitN(d.Version(), ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

// SchemasNode returns the mapping that holds named schemas:
// components.schemas for 3.x, definitions for 2.0. It may be nil.
func (d *Document) SchemasNode() *yaml.Node {
	if d.IsOAS2() {
		return Lookup(d.root, "definitions")
	}
	return LookupPath(d.root, "components", "schemas")
}

// SchemaRefPrefix returns the local $ref prefix for named schemas.
func (d *Document) SchemaRefPrefix() string {
	if d.IsOAS2() {
		return "#/definitions/"
	}
	return "#/components/schemas/"
}

// ParametersNode returns the mapping that holds reusable parameters:
// components.parameters for 3.x, parameters for 2.0. It may be nil.
func (d *Document) ParametersNode() *yaml.Node {
	if d.IsOAS2() {
		return Lookup(d.root, "parameters")
	}
	return LookupPath(d.root, "components", "parameters")
}

// ParameterRefPrefix returns the local $ref prefix for reusable parameters.
func (d *Document) ParameterRefPrefix() string {
	if d.IsOAS2() {
		return "#/parameters/"
	}
	return "#/components/parameters/"
}

// expandAliases replaces alias nodes with copies of their anchors so that
// every node in the tree has exactly one parent.
func expandAliases(root *yaml.Node) (*yaml.Node, error) {
	count := 0
	var expand func(n *yaml.Node) (*yaml.Node, error)
	expand = func(n *yaml.Node) (*yaml.Node, error) {
		count++
		if count > MaxNodes {
			return nil, fmt.Errorf("document exceeds %d nodes", MaxNodes)
		}
		if n.Kind == yaml.AliasNode {
			if n.Alias == nil {
				return nil, fmt.Errorf("unresolved alias at line %d", n.Line)
			}
			return expand(n.Alias)
		}
		out := *n
		out.Anchor = ""
		out.Alias = nil
		if len(n.Content) > 0 {
			out.Content = make([]*yaml.Node, len(n.Content))
			for i, c := range n.Content {
				ec, err := expand(c)
				if err != nil {
					return nil, err
				}
				out.Content[i] = ec
			}
		}
		return &out, nil
	}
	return expand(root)
}
