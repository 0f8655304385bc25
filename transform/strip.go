package transform

import (
	"fmt"
	"strings"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

// DefaultPathParameter is the templated segment removed by default.
const DefaultPathParameter = "apiVersion"

// StripPathSegment removes the "/{Parameter}" segment from every paths key and
// drops the matching parameter declarations. Keys are renamed in place, so
// path order is unchanged.
type StripPathSegment struct {
	// Parameter is the template variable name, without braces.
	Parameter string
}

// Name implements Step.
func (StripPathSegment) Name() StepName { return StepStripPathSegment }

// Segment returns the literal text removed from path keys.
func (s StripPathSegment) Segment() string {
	return "/{" + s.param() + "}"
}

func (s StripPathSegment) param() string {
	if s.Parameter == "" {
		return DefaultPathParameter
	}
	return s.Parameter
}

// StripPath applies the segment removal to a single path key.
func (s StripPathSegment) StripPath(key string) string {
	out := strings.ReplaceAll(key, s.Segment(), "")
	if out == "" {
		return "/"
	}
	return out
}

// Apply implements Step.
func (s StripPathSegment) Apply(doc *document.Document, result *Result) error {
	paths := document.Lookup(doc.Root(), "paths")
	if paths == nil {
		return nil
	}
	if !document.IsMapping(paths) {
		return &oaserrors.ParseError{
			Path:    "paths",
			Line:    paths.Line,
			Column:  paths.Column,
			Message: fmt.Sprintf("paths must be an object, got %s", document.KindName(paths)),
		}
	}

	// Plan every rename before touching the mapping so a collision leaves
	// the document unchanged.
	segment := s.Segment()
	existing := make(map[string]bool, len(paths.Content)/2)
	for _, p := range document.Pairs(paths) {
		existing[p.Key] = true
	}
	var renames []PathRename
	targets := make(map[string]string)
	for _, p := range document.Pairs(paths) {
		if !strings.Contains(p.Key, segment) {
			continue
		}
		to := s.StripPath(p.Key)
		if existing[to] {
			return &oaserrors.TransformError{
				Step:    string(StepStripPathSegment),
				Path:    document.JoinPath("paths", p.Key),
				Message: fmt.Sprintf("stripped path %q already exists", to),
			}
		}
		if prev, ok := targets[to]; ok {
			return &oaserrors.TransformError{
				Step:    string(StepStripPathSegment),
				Path:    document.JoinPath("paths", p.Key),
				Message: fmt.Sprintf("%q and %q both become %q", prev, p.Key, to),
			}
		}
		targets[to] = p.Key
		renames = append(renames, PathRename{From: p.Key, To: to})
	}

	for _, rn := range renames {
		document.Rename(paths, rn.From, rn.To)
		result.RenamedPaths = append(result.RenamedPaths, rn)
		result.add(Fix{
			Type:        FixTypeRenamedPath,
			Step:        StepStripPathSegment,
			Path:        document.JoinPath("paths", rn.To),
			Description: fmt.Sprintf("removed %s from path", segment),
			Before:      rn.From,
			After:       rn.To,
		})
	}

	for _, rn := range renames {
		item := document.Lookup(paths, rn.To)
		if !document.IsMapping(item) {
			continue
		}
		itemPath := document.JoinPath("paths", rn.To)
		if err := s.filterParameters(doc, item, itemPath, false, result); err != nil {
			return err
		}
		for _, method := range document.Methods {
			op := document.Lookup(item, method)
			if !document.IsMapping(op) {
				continue
			}
			if err := s.filterParameters(doc, op, document.JoinPath(itemPath, method), true, result); err != nil {
				return err
			}
		}
	}

	if len(renames) > 0 {
		s.pruneComponentParameters(doc, result)
	}
	return nil
}

// filterParameters drops parameter entries named after the stripped segment.
// Operation-level entries must also be declared in: path.
func (s StripPathSegment) filterParameters(doc *document.Document, holder *yaml.Node, holderPath string, inPathOnly bool, result *Result) error {
	params := document.Lookup(holder, "parameters")
	if params == nil {
		return nil
	}
	paramsPath := document.JoinPath(holderPath, "parameters")
	if !document.IsSequence(params) {
		return &oaserrors.ParseError{
			Path:    paramsPath,
			Line:    params.Line,
			Column:  params.Column,
			Message: fmt.Sprintf("parameters must be an array, got %s", document.KindName(params)),
		}
	}

	kept := make([]*yaml.Node, 0, len(params.Content))
	for i, entry := range params.Content {
		entryPath := document.IndexPath(paramsPath, i)
		name, in, err := parameterIdentity(doc, entry, entryPath)
		if err != nil {
			return err
		}
		if name != s.param() || (inPathOnly && in != "path") {
			kept = append(kept, entry)
			continue
		}
		var before any = name
		if ref := document.RefOf(entry); ref != "" {
			before = ref
		}
		result.add(Fix{
			Type:        FixTypeRemovedParameter,
			Step:        StepStripPathSegment,
			Path:        entryPath,
			Description: fmt.Sprintf("removed %s parameter %q", in, name),
			Before:      before,
		})
	}

	switch {
	case len(kept) == 0:
		document.Delete(holder, "parameters")
	case len(kept) != len(params.Content):
		params.Content = kept
	}
	return nil
}

// parameterIdentity returns the name and location of a parameter entry,
// following $ref when needed.
func parameterIdentity(doc *document.Document, entry *yaml.Node, path string) (name, in string, err error) {
	if !document.IsMapping(entry) {
		return "", "", &oaserrors.ParseError{
			Path:    path,
			Line:    entry.Line,
			Column:  entry.Column,
			Message: fmt.Sprintf("parameter must be an object, got %s", document.KindName(entry)),
		}
	}
	target, err := doc.ResolveRefs(entry)
	if err != nil {
		return "", "", &oaserrors.ParseError{
			Path:    path,
			Line:    entry.Line,
			Column:  entry.Column,
			Message: "parameter reference cannot be resolved",
			Cause:   err,
		}
	}
	name, ok := document.StringValue(document.Lookup(target, "name"))
	if !ok || name == "" {
		return "", "", &oaserrors.ParseError{
			Path:    path,
			Line:    target.Line,
			Column:  target.Column,
			Message: "parameter has no name",
		}
	}
	in, _ = document.StringValue(document.Lookup(target, "in"))
	return name, in, nil
}

// pruneComponentParameters deletes reusable path parameters named after the
// stripped segment once nothing references them.
func (s StripPathSegment) pruneComponentParameters(doc *document.Document, result *Result) {
	comps := doc.ParametersNode()
	prefix := doc.ParameterRefPrefix()
	basePath := strings.ReplaceAll(strings.TrimPrefix(prefix, "#/"), "/", ".")
	basePath = strings.TrimSuffix(basePath, ".")

	for _, p := range document.Pairs(comps) {
		name, _ := document.StringValue(document.Lookup(p.Value, "name"))
		in, _ := document.StringValue(document.Lookup(p.Value, "in"))
		if name != s.param() || in != "path" {
			continue
		}
		if len(doc.RefsMatching(prefix+document.EscapePointerToken(p.Key))) > 0 {
			continue
		}
		document.Delete(comps, p.Key)
		result.add(Fix{
			Type:        FixTypeRemovedComponentParameter,
			Step:        StepStripPathSegment,
			Path:        document.JoinPath(basePath, p.Key),
			Description: fmt.Sprintf("removed unused path parameter %q", name),
			Before:      p.Key,
		})
	}
}
