package transform

import (
	"fmt"
	"strings"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"go.yaml.in/yaml/v4"
)

// DanglingPolicy controls what RemoveSchemas does with references to a
// removed schema.
type DanglingPolicy string

const (
	// DanglingError fails the step and lists the references
	DanglingError DanglingPolicy = "error"
	// DanglingPrune deletes the referencing nodes
	DanglingPrune DanglingPolicy = "prune"
)

// ParseDanglingPolicy converts a string to a DanglingPolicy. The empty string is error.
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch DanglingPolicy(strings.ToLower(s)) {
	case "", DanglingError:
		return DanglingError, nil
	case DanglingPrune:
		return DanglingPrune, nil
	}
	return "", &oaserrors.ConfigError{
		Option:  "remove-schemas.dangling",
		Value:   s,
		Message: "must be error or prune",
	}
}

// Keywords whose list members may be dropped without changing the meaning
// of the rest of the schema. An emptied list is removed.
var prunableLists = map[string]bool{"allOf": true, "anyOf": true, "oneOf": true, "prefixItems": true}

// RemoveSchemas deletes named schemas that a code generator cannot handle.
type RemoveSchemas struct {
	// Names lists the schemas to delete.
	Names []string
	// Dangling selects the handling of references to deleted schemas.
	Dangling DanglingPolicy
}

// Name implements Step.
func (RemoveSchemas) Name() StepName { return StepRemoveSchemas }

// Apply implements Step.
func (r RemoveSchemas) Apply(doc *document.Document, result *Result) error {
	if len(r.Names) == 0 {
		return nil
	}
	policy, err := ParseDanglingPolicy(string(r.Dangling))
	if err != nil {
		return err
	}

	schemas := doc.SchemasNode()
	prefix := doc.SchemaRefPrefix()
	basePath := "components.schemas"
	if doc.IsOAS2() {
		basePath = "definitions"
	}

	var removed []string
	for _, name := range r.Names {
		if !document.Delete(schemas, name) {
			result.warn("schema %q not found", name)
			continue
		}
		removed = append(removed, name)
		result.RemovedSchemas = append(result.RemovedSchemas, name)
		result.add(Fix{
			Type:        FixTypeRemovedSchema,
			Step:        StepRemoveSchemas,
			Path:        document.JoinPath(basePath, name),
			Description: fmt.Sprintf("removed schema %q", name),
			Before:      name,
		})
	}
	if len(removed) == 0 {
		return nil
	}

	targets := make([]string, len(removed))
	for i, name := range removed {
		targets[i] = prefix + document.EscapePointerToken(name)
	}

	if policy == DanglingError {
		var details []string
		for _, site := range danglingRefs(doc, targets) {
			details = append(details, fmt.Sprintf("%s -> %s", site.Path, site.Ref))
		}
		for _, m := range danglingMappings(doc, targets) {
			details = append(details, fmt.Sprintf("%s -> %s", m.path, m.ref))
		}
		if len(details) > 0 {
			return &oaserrors.TransformError{
				Step:    string(StepRemoveSchemas),
				Message: fmt.Sprintf("%d references to removed schemas", len(details)),
				Details: details,
			}
		}
		return nil
	}

	for {
		sites := danglingRefs(doc, targets)
		if len(sites) == 0 {
			break
		}
		// Later sites are removed first so earlier paths stay meaningful
		// for the recorded fixes.
		for i := len(sites) - 1; i >= 0; i-- {
			site := sites[i]
			if err := pruneSite(site, result); err != nil {
				return err
			}
			// A schema that was only a reference is gone now, so
			// references to it dangle in turn.
			if site.Parent == schemas && site.Key != "" {
				result.RemovedSchemas = append(result.RemovedSchemas, site.Key)
				targets = append(targets, prefix+document.EscapePointerToken(site.Key))
			}
		}
	}
	for _, m := range danglingMappings(doc, targets) {
		document.Delete(m.mapping, m.key)
		result.add(Fix{
			Type:        FixTypePrunedReference,
			Step:        StepRemoveSchemas,
			Path:        m.path,
			Description: "removed discriminator mapping to removed schema",
			Before:      m.ref,
		})
	}
	return nil
}

func danglingRefs(doc *document.Document, targets []string) []document.RefSite {
	var sites []document.RefSite
	doc.WalkRefs(func(s document.RefSite) bool {
		if matchesTarget(s.Ref, targets) {
			sites = append(sites, s)
		}
		return true
	})
	return sites
}

func matchesTarget(ref string, targets []string) bool {
	for _, t := range targets {
		if ref == t || strings.HasPrefix(ref, t+"/") {
			return true
		}
	}
	return false
}

func pruneSite(site document.RefSite, result *Result) error {
	if site.Parent == nil {
		return &oaserrors.TransformError{
			Step:    string(StepRemoveSchemas),
			Path:    site.Path,
			Message: "cannot prune a reference at the document root",
		}
	}

	switch site.Parent.Kind {
	case yaml.SequenceNode:
		document.RemoveNode(site.Parent, site.Node)
		if len(site.Parent.Content) == 0 && prunableLists[site.ParentKey] && site.Owner != nil {
			document.Delete(site.Owner, site.ParentKey)
		}
	case yaml.MappingNode:
		document.Delete(site.Parent, site.Key)
		if site.ParentKey == "properties" && site.Owner != nil {
			dropRequired(site.Owner, site.Key)
		}
	}

	result.add(Fix{
		Type:        FixTypePrunedReference,
		Step:        StepRemoveSchemas,
		Path:        site.Path,
		Description: "removed reference to removed schema",
		Before:      site.Ref,
	})
	return nil
}

// dropRequired removes name from the required list of schema s.
func dropRequired(s *yaml.Node, name string) {
	req := document.Lookup(s, "required")
	if !document.IsSequence(req) {
		return
	}
	for i := len(req.Content) - 1; i >= 0; i-- {
		if v, ok := document.StringValue(req.Content[i]); ok && v == name {
			document.RemoveAt(req, i)
		}
	}
	if len(req.Content) == 0 {
		document.Delete(s, "required")
	}
}

type mappingRef struct {
	mapping *yaml.Node
	key     string
	ref     string
	path    string
}

// danglingMappings finds discriminator mapping values that point at a
// removed schema. They are plain strings rather than $ref objects.
func danglingMappings(doc *document.Document, targets []string) []mappingRef {
	var found []mappingRef
	var walk func(n *yaml.Node, path string)
	walk = func(n *yaml.Node, path string) {
		switch n.Kind {
		case yaml.MappingNode:
			if disc := document.Lookup(n, "discriminator"); document.IsMapping(disc) {
				mapping := document.Lookup(disc, "mapping")
				for _, p := range document.Pairs(mapping) {
					if v, ok := document.StringValue(p.Value); ok && matchesTarget(v, targets) {
						found = append(found, mappingRef{
							mapping: mapping,
							key:     p.Key,
							ref:     v,
							path:    document.JoinPath(path, "discriminator.mapping."+p.Key),
						})
					}
				}
			}
			for _, p := range document.Pairs(n) {
				walk(p.Value, document.JoinPath(path, p.Key))
			}
		case yaml.SequenceNode:
			for i, c := range n.Content {
				walk(c, document.IndexPath(path, i))
			}
		}
	}
	walk(doc.Root(), "")
	return found
}
