package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

// NullStyle selects how NormalizeNullable expresses "may be null".
type NullStyle string

const (
	// NullStyleAuto picks a style from the document version
	NullStyleAuto NullStyle = "auto"
	// NullStyleTypeArray writes type: [T, "null"] (OpenAPI 3.1, JSON Schema)
	NullStyleTypeArray NullStyle = "type-array"
	// NullStyleNullable writes nullable: true (OpenAPI 3.0)
	NullStyleNullable NullStyle = "nullable"
	// NullStyleXNullable writes x-nullable: true (Swagger 2.0)
	NullStyleXNullable NullStyle = "x-nullable"
)

// DefaultVendorMarkers are the non-standard null markers recognised by default.
var DefaultVendorMarkers = []string{"x-nullable"}

// ParseNullStyle converts a string to a NullStyle. The empty string is auto.
func ParseNullStyle(s string) (NullStyle, error) {
	switch NullStyle(strings.ToLower(s)) {
	case "", NullStyleAuto:
		return NullStyleAuto, nil
	case NullStyleTypeArray:
		return NullStyleTypeArray, nil
	case NullStyleNullable:
		return NullStyleNullable, nil
	case NullStyleXNullable:
		return NullStyleXNullable, nil
	}
	return "", &oaserrors.ConfigError{
		Option:  "nullable.style",
		Value:   s,
		Message: "must be auto, type-array, nullable, or x-nullable",
	}
}

// ResolveNullStyle returns the concrete style for doc.
func ResolveNullStyle(style NullStyle, doc *document.Document) NullStyle {
	if style != NullStyleAuto && style != "" {
		return style
	}
	if doc.IsOAS2() {
		return NullStyleXNullable
	}
	major, minor, ok := doc.MinorVersion()
	if ok && (major > 3 || (major == 3 && minor >= 1)) {
		return NullStyleTypeArray
	}
	return NullStyleNullable
}

// IsNullable reports whether schema s admits null by any recognised marker:
// nullable: true, a vendor marker set to true, a type list containing "null",
// an anyOf/oneOf member of type "null", or a null enum value.
func IsNullable(s *yaml.Node, vendorMarkers []string) bool {
	if !document.IsMapping(s) {
		return false
	}
	if document.IsTrue(document.Lookup(s, "nullable")) {
		return true
	}
	for _, m := range vendorMarkers {
		if document.IsTrue(document.Lookup(s, m)) {
			return true
		}
	}
	if typeIncludesNull(document.Lookup(s, "type")) {
		return true
	}
	for _, key := range []string{"anyOf", "oneOf"} {
		if nullMemberIndex(document.Lookup(s, key)) >= 0 {
			return true
		}
	}
	if enum := document.Lookup(s, "enum"); document.IsSequence(enum) {
		if slices.ContainsFunc(enum.Content, document.IsNull) {
			return true
		}
	}
	return false
}

func typeIncludesNull(t *yaml.Node) bool {
	if v, ok := document.StringValue(t); ok {
		return v == "null"
	}
	if document.IsSequence(t) {
		for _, c := range t.Content {
			if v, ok := document.StringValue(c); ok && v == "null" {
				return true
			}
		}
	}
	return false
}

// isNullSchema reports whether n is a schema whose only type is "null".
func isNullSchema(n *yaml.Node) bool {
	v, ok := document.StringValue(document.Lookup(n, "type"))
	return ok && v == "null"
}

func nullMemberIndex(list *yaml.Node) int {
	if !document.IsSequence(list) {
		return -1
	}
	return slices.IndexFunc(list.Content, isNullSchema)
}

// NormalizeNullable rewrites every null marker in the document to one style.
// Running it twice gives the same result as running it once.
type NormalizeNullable struct {
	// Style is the target style. The zero value is NullStyleAuto.
	Style NullStyle
	// VendorMarkers are extension keys treated like nullable.
	// The canonical marker of the target style is ignored here.
	VendorMarkers []string
}

// NewNormalizeNullable returns a NormalizeNullable with the default settings.
func NewNormalizeNullable() NormalizeNullable {
	return NormalizeNullable{Style: NullStyleAuto, VendorMarkers: slices.Clone(DefaultVendorMarkers)}
}

// Name implements Step.
func (NormalizeNullable) Name() StepName { return StepNormalizeNullable }

// Apply implements Step.
func (n NormalizeNullable) Apply(doc *document.Document, result *Result) error {
	style := ResolveNullStyle(n.Style, doc)
	if _, err := ParseNullStyle(string(style)); err != nil {
		return err
	}

	var canonical string
	switch style {
	case NullStyleNullable:
		canonical = "nullable"
	case NullStyleXNullable:
		canonical = "x-nullable"
	}
	markers := make([]string, 0, len(n.VendorMarkers))
	for _, m := range n.VendorMarkers {
		if m != canonical && m != "nullable" {
			markers = append(markers, m)
		}
	}

	return walkSchemas(doc, func(path string, s *yaml.Node) error {
		var (
			changed bool
			err     error
		)
		if style == NullStyleTypeArray {
			changed, err = toTypeArray(s, path, markers)
		} else {
			changed, err = toFlag(s, path, canonical, markers)
		}
		if err != nil {
			return err
		}
		if changed {
			result.add(Fix{
				Type:        FixTypeNormalizedNullable,
				Step:        StepNormalizeNullable,
				Path:        path,
				Description: fmt.Sprintf("rewrote null marker as %s", style),
			})
		}
		return nil
	})
}

// takeFlag removes key from s and reports whether it was true.
func takeFlag(s *yaml.Node, key, path string) (present, value bool, err error) {
	v := document.Lookup(s, key)
	if v == nil {
		return false, false, nil
	}
	b, ok := document.BoolValue(v)
	if !ok {
		return true, false, &oaserrors.ParseError{
			Path:    document.JoinPath(path, key),
			Line:    v.Line,
			Column:  v.Column,
			Message: fmt.Sprintf("%s must be a boolean, got %s", key, document.KindName(v)),
		}
	}
	document.Delete(s, key)
	return true, b, nil
}

func toTypeArray(s *yaml.Node, path string, markers []string) (bool, error) {
	changed := false
	flag := false
	for _, key := range append([]string{"nullable"}, markers...) {
		present, value, err := takeFlag(s, key, path)
		if err != nil {
			return false, err
		}
		changed = changed || present
		flag = flag || value
	}
	if !flag {
		return changed, nil
	}

	t := document.Lookup(s, "type")
	switch {
	case document.IsScalar(t):
		if v, _ := document.StringValue(t); v != "null" {
			document.Set(s, "type", document.NewSequence(document.CloneNode(t), document.String("null")))
		}
	case document.IsSequence(t):
		if !typeIncludesNull(t) {
			t.Content = append(t.Content, document.String("null"))
		}
	case document.IsSequence(document.Lookup(s, "anyOf")):
		appendNullMember(document.Lookup(s, "anyOf"))
	case document.IsSequence(document.Lookup(s, "oneOf")):
		appendNullMember(document.Lookup(s, "oneOf"))
	case document.Has(s, "$ref") || document.Has(s, "allOf"):
		wrapAnyOfNull(s)
	case document.IsSequence(document.Lookup(s, "enum")):
		enum := document.Lookup(s, "enum")
		if !slices.ContainsFunc(enum.Content, document.IsNull) {
			enum.Content = append(enum.Content, document.Null())
		}
	case document.Has(s, "properties") || document.Has(s, "additionalProperties"):
		document.Set(s, "type", document.NewSequence(document.String("object"), document.String("null")))
	case document.Has(s, "items"):
		document.Set(s, "type", document.NewSequence(document.String("array"), document.String("null")))
	default:
		document.Set(s, "anyOf", document.NewSequence(document.NewMapping(), document.NewMapping("type", "null")))
	}
	return true, nil
}

func appendNullMember(list *yaml.Node) {
	if nullMemberIndex(list) < 0 {
		list.Content = append(list.Content, document.NewMapping("type", "null"))
	}
}

// wrapAnyOfNull moves $ref and allOf into the first member of a new anyOf
// whose second member is {type: "null"}. Annotations stay on s.
func wrapAnyOfNull(s *yaml.Node) {
	inner := document.NewMapping()
	for _, key := range []string{"$ref", "allOf"} {
		if v := document.Lookup(s, key); v != nil {
			inner.Content = append(inner.Content, document.String(key), v)
			document.Delete(s, key)
		}
	}
	document.Set(s, "anyOf", document.NewSequence(inner, document.NewMapping("type", "null")))
}

func toFlag(s *yaml.Node, path, canonical string, markers []string) (bool, error) {
	changed := false
	flag := false

	for _, key := range markers {
		present, value, err := takeFlag(s, key, path)
		if err != nil {
			return false, err
		}
		changed = changed || present
		flag = flag || value
	}

	if v := document.Lookup(s, canonical); v != nil {
		b, ok := document.BoolValue(v)
		if !ok {
			return false, &oaserrors.ParseError{
				Path:    document.JoinPath(path, canonical),
				Line:    v.Line,
				Column:  v.Column,
				Message: fmt.Sprintf("%s must be a boolean, got %s", canonical, document.KindName(v)),
			}
		}
		if b {
			flag = true
		} else {
			document.Delete(s, canonical)
			changed = true
		}
	}
	if canonical != "nullable" {
		present, value, err := takeFlag(s, "nullable", path)
		if err != nil {
			return false, err
		}
		changed = changed || present
		flag = flag || value
	}

	t := document.Lookup(s, "type")
	if v, ok := document.StringValue(t); ok && v == "null" {
		document.Delete(s, "type")
		flag, changed = true, true
	}
	if document.IsSequence(t) && typeIncludesNull(t) {
		flag, changed = true, true
		var types []*yaml.Node
		for _, c := range t.Content {
			if v, ok := document.StringValue(c); ok && v == "null" {
				continue
			}
			types = append(types, c)
		}
		switch {
		case len(types) == 0:
			document.Delete(s, "type")
		case len(types) == 1:
			document.Set(s, "type", types[0])
		case !document.Has(s, "anyOf"):
			members := make([]*yaml.Node, len(types))
			for i, tn := range types {
				members[i] = document.NewMapping("type", tn)
			}
			document.Delete(s, "type")
			document.Set(s, "anyOf", document.NewSequence(members...))
		default:
			t.Content = types
		}
	}

	for _, key := range []string{"anyOf", "oneOf"} {
		list := document.Lookup(s, key)
		i := nullMemberIndex(list)
		if i < 0 {
			continue
		}
		flag, changed = true, true
		for i >= 0 {
			document.RemoveAt(list, i)
			i = nullMemberIndex(list)
		}
		switch {
		case len(list.Content) == 0:
			document.Delete(s, key)
		case len(list.Content) == 1 && isBareRef(list.Content[0]) && !document.Has(s, "allOf"):
			document.Delete(s, key)
			document.Set(s, "allOf", document.NewSequence(list.Content[0]))
		}
	}

	if flag && !document.IsTrue(document.Lookup(s, canonical)) {
		document.Set(s, canonical, document.Bool(true))
		changed = true
	}
	return changed, nil
}

func isBareRef(n *yaml.Node) bool {
	return document.IsMapping(n) && len(n.Content) == 2 && n.Content[0].Value == "$ref"
}
