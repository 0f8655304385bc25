package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

// DefaultOptionalExtensions are the extension keys that keep a property optional.
var DefaultOptionalExtensions = []string{"x-optional"}

// RequireProperties lists every property of every object schema in that
// schema's required array, except properties that may be null or that carry
// an optional extension set to true. Existing required entries are kept.
type RequireProperties struct {
	// OptionalExtensions are extension keys that exempt a property when true.
	OptionalExtensions []string
	// NullableMarkers are vendor extensions treated like nullable: true.
	NullableMarkers []string
	// SkipReadOnly also exempts readOnly: true properties.
	SkipReadOnly bool
}

// NewRequireProperties returns a RequireProperties with the default settings.
func NewRequireProperties() RequireProperties {
	return RequireProperties{
		OptionalExtensions: slices.Clone(DefaultOptionalExtensions),
		NullableMarkers:    slices.Clone(DefaultVendorMarkers),
	}
}

// Name implements Step.
func (RequireProperties) Name() StepName { return StepRequireProperties }

// Apply implements Step.
func (r RequireProperties) Apply(doc *document.Document, result *Result) error {
	return walkSchemas(doc, func(path string, s *yaml.Node) error {
		props := document.Lookup(s, "properties")
		if !document.IsMapping(props) || len(props.Content) == 0 {
			return nil
		}

		reqPath := document.JoinPath(path, "required")
		req := document.Lookup(s, "required")
		var before []string
		if req != nil {
			values, ok := document.SequenceStrings(req)
			if !ok {
				return &oaserrors.ParseError{
					Path:    reqPath,
					Line:    req.Line,
					Column:  req.Column,
					Message: "required must be an array of strings",
				}
			}
			before = values
		}

		listed := make(map[string]bool, len(before))
		after := make([]string, 0, len(before)+len(props.Content)/2)
		for _, name := range before {
			if !listed[name] {
				listed[name] = true
				after = append(after, name)
			}
		}
		var added []string
		for _, p := range document.Pairs(props) {
			if listed[p.Key] || r.optional(p.Value) {
				continue
			}
			listed[p.Key] = true
			added = append(added, p.Key)
			after = append(after, p.Key)
		}

		if len(added) == 0 && len(after) == len(before) {
			return nil
		}

		seq := document.NewSequence()
		for _, name := range after {
			seq.Content = append(seq.Content, document.String(name))
		}
		if req != nil {
			seq.Style = req.Style
			document.Set(s, "required", seq)
		} else {
			document.InsertAfter(s, "properties", "required", seq)
		}

		desc := fmt.Sprintf("marked %d properties required: %s", len(added), strings.Join(added, ", "))
		if len(added) == 0 {
			desc = "removed duplicate required entries"
		}
		var beforeVal any
		if before != nil {
			beforeVal = before
		}
		result.add(Fix{
			Type:        FixTypeAddedRequired,
			Step:        StepRequireProperties,
			Path:        reqPath,
			Description: desc,
			Before:      beforeVal,
			After:       after,
		})
		return nil
	})
}

func (r RequireProperties) optional(prop *yaml.Node) bool {
	if IsNullable(prop, r.NullableMarkers) {
		return true
	}
	for _, ext := range r.OptionalExtensions {
		if document.IsTrue(document.Lookup(prop, ext)) {
			return true
		}
	}
	return r.SkipReadOnly && document.IsTrue(document.Lookup(prop, "readOnly"))
}
