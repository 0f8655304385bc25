package transform

import (
	"github.com/erraggy/oasprep/document"
	"go.yaml.in/yaml/v4"
)

// schemaVisitor is called for every schema node. path is the dotted location.
type schemaVisitor func(path string, schema *yaml.Node) error

// Keywords whose value is a single subschema.
var singleSchemaKeys = []string{
	"not", "additionalProperties", "additionalItems", "contains", "propertyNames",
	"if", "then", "else", "unevaluatedProperties", "unevaluatedItems", "contentSchema",
}

// Keywords whose value is a list of subschemas.
var listSchemaKeys = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

// Keywords whose value maps names to subschemas.
var mapSchemaKeys = []string{"properties", "patternProperties", "dependentSchemas", "$defs", "definitions"}

// walkSchemas visits every schema in the document, parents before children.
// The visitor may rewrite the node it is given; the walk continues into the
// node's children as they are after the visit.
func walkSchemas(doc *document.Document, visit schemaVisitor) error {
	w := &schemaWalker{visit: visit, oas2: doc.IsOAS2()}
	return w.document(doc.Root())
}

type schemaWalker struct {
	visit schemaVisitor
	oas2  bool
}

func (w *schemaWalker) document(root *yaml.Node) error {
	if w.oas2 {
		if err := w.schemaMap(document.Lookup(root, "definitions"), "definitions"); err != nil {
			return err
		}
		for _, p := range document.Pairs(document.Lookup(root, "parameters")) {
			if err := w.parameter(p.Value, document.JoinPath("parameters", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(root, "responses")) {
			if err := w.response(p.Value, document.JoinPath("responses", p.Key)); err != nil {
				return err
			}
		}
	} else {
		comps := document.Lookup(root, "components")
		if err := w.schemaMap(document.Lookup(comps, "schemas"), "components.schemas"); err != nil {
			return err
		}
		for _, p := range document.Pairs(document.Lookup(comps, "parameters")) {
			if err := w.parameter(p.Value, document.JoinPath("components.parameters", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(comps, "headers")) {
			if err := w.parameter(p.Value, document.JoinPath("components.headers", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(comps, "requestBodies")) {
			if err := w.content(p.Value, document.JoinPath("components.requestBodies", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(comps, "responses")) {
			if err := w.response(p.Value, document.JoinPath("components.responses", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(comps, "callbacks")) {
			if err := w.callback(p.Value, document.JoinPath("components.callbacks", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(comps, "pathItems")) {
			if err := w.pathItem(p.Value, document.JoinPath("components.pathItems", p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(root, "webhooks")) {
			if err := w.pathItem(p.Value, document.JoinPath("webhooks", p.Key)); err != nil {
				return err
			}
		}
	}

	for _, p := range document.Pairs(document.Lookup(root, "paths")) {
		if err := w.pathItem(p.Value, document.JoinPath("paths", p.Key)); err != nil {
			return err
		}
	}
	return nil
}

func (w *schemaWalker) pathItem(item *yaml.Node, path string) error {
	if !document.IsMapping(item) {
		return nil
	}
	if err := w.parameters(document.Lookup(item, "parameters"), document.JoinPath(path, "parameters")); err != nil {
		return err
	}
	for _, method := range document.Methods {
		op := document.Lookup(item, method)
		if !document.IsMapping(op) {
			continue
		}
		opPath := document.JoinPath(path, method)
		if err := w.parameters(document.Lookup(op, "parameters"), document.JoinPath(opPath, "parameters")); err != nil {
			return err
		}
		if err := w.content(document.Lookup(op, "requestBody"), document.JoinPath(opPath, "requestBody")); err != nil {
			return err
		}
		for _, p := range document.Pairs(document.Lookup(op, "responses")) {
			if err := w.response(p.Value, document.JoinPath(opPath, "responses."+p.Key)); err != nil {
				return err
			}
		}
		for _, p := range document.Pairs(document.Lookup(op, "callbacks")) {
			if err := w.callback(p.Value, document.JoinPath(opPath, "callbacks."+p.Key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *schemaWalker) callback(cb *yaml.Node, path string) error {
	for _, p := range document.Pairs(cb) {
		if err := w.pathItem(p.Value, document.JoinPath(path, p.Key)); err != nil {
			return err
		}
	}
	return nil
}

func (w *schemaWalker) parameters(params *yaml.Node, path string) error {
	if !document.IsSequence(params) {
		return nil
	}
	for i, p := range params.Content {
		if err := w.parameter(p, document.IndexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

// parameter covers parameters and headers, which share the schema and
// content fields.
func (w *schemaWalker) parameter(param *yaml.Node, path string) error {
	if !document.IsMapping(param) {
		return nil
	}
	if err := w.schema(document.Lookup(param, "schema"), document.JoinPath(path, "schema")); err != nil {
		return err
	}
	return w.content(param, path)
}

func (w *schemaWalker) response(resp *yaml.Node, path string) error {
	if !document.IsMapping(resp) {
		return nil
	}
	if w.oas2 {
		if err := w.schema(document.Lookup(resp, "schema"), document.JoinPath(path, "schema")); err != nil {
			return err
		}
	}
	for _, p := range document.Pairs(document.Lookup(resp, "headers")) {
		if err := w.parameter(p.Value, document.JoinPath(path, "headers."+p.Key)); err != nil {
			return err
		}
	}
	return w.content(resp, path)
}

// content visits the media type schemas of a request body, response, or
// parameter.
func (w *schemaWalker) content(holder *yaml.Node, path string) error {
	for _, mt := range document.Pairs(document.Lookup(holder, "content")) {
		mtPath := document.JoinPath(path, "content."+mt.Key)
		if err := w.schema(document.Lookup(mt.Value, "schema"), document.JoinPath(mtPath, "schema")); err != nil {
			return err
		}
		for _, enc := range document.Pairs(document.Lookup(mt.Value, "encoding")) {
			for _, h := range document.Pairs(document.Lookup(enc.Value, "headers")) {
				hPath := document.JoinPath(mtPath, "encoding."+enc.Key+".headers."+h.Key)
				if err := w.parameter(h.Value, hPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (w *schemaWalker) schemaMap(m *yaml.Node, path string) error {
	for _, p := range document.Pairs(m) {
		if err := w.schema(p.Value, document.JoinPath(path, p.Key)); err != nil {
			return err
		}
	}
	return nil
}

func (w *schemaWalker) schema(s *yaml.Node, path string) error {
	if !document.IsMapping(s) {
		return nil
	}
	if err := w.visit(path, s); err != nil {
		return err
	}

	for _, key := range mapSchemaKeys {
		if err := w.schemaMap(document.Lookup(s, key), document.JoinPath(path, key)); err != nil {
			return err
		}
	}

	items := document.Lookup(s, "items")
	switch {
	case document.IsMapping(items):
		if err := w.schema(items, document.JoinPath(path, "items")); err != nil {
			return err
		}
	case document.IsSequence(items):
		for i, item := range items.Content {
			if err := w.schema(item, document.IndexPath(document.JoinPath(path, "items"), i)); err != nil {
				return err
			}
		}
	}

	for _, key := range singleSchemaKeys {
		if err := w.schema(document.Lookup(s, key), document.JoinPath(path, key)); err != nil {
			return err
		}
	}

	for _, key := range listSchemaKeys {
		list := document.Lookup(s, key)
		if !document.IsSequence(list) {
			continue
		}
		for i, member := range list.Content {
			if err := w.schema(member, document.IndexPath(document.JoinPath(path, key), i)); err != nil {
				return err
			}
		}
	}
	return nil
}
