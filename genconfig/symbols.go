package genconfig

import (
	"github.com/erraggy/oasprep/document"
)

// Symbol is a generated zod symbol and the document entry it comes from.
type Symbol struct {
	Kind SymbolKind `json:"kind"`
	// Source is the schema name or operationId.
	Source string `json:"source"`
	// Path locates the source entry in the document.
	Path string `json:"path"`
	Name string `json:"name"`
}

// Symbols lists the zod symbols the openapi-ts generator will emit for doc:
// one definition per component schema, then a request symbol for every
// operation with a request body and a response symbol for every operation.
// Operations without an operationId are skipped.
func (s *Set) Symbols(doc *document.Document) ([]Symbol, error) {
	var out []Symbol

	prefix := "components.schemas"
	if doc.IsOAS2() {
		prefix = "definitions"
	}
	for _, p := range document.Pairs(doc.SchemasNode()) {
		name, err := s.SymbolName(SymbolDefinition, p.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, Symbol{Kind: SymbolDefinition, Source: p.Key, Path: document.JoinPath(prefix, p.Key), Name: name})
	}

	for _, item := range document.Pairs(document.Lookup(doc.Root(), "paths")) {
		itemPath := document.JoinPath("paths", item.Key)
		for _, method := range document.Methods {
			op := document.Lookup(item.Value, method)
			if !document.IsMapping(op) {
				continue
			}
			id, ok := document.StringValue(document.Lookup(op, "operationId"))
			if !ok || id == "" {
				continue
			}
			opPath := document.JoinPath(itemPath, method)
			if document.Has(op, "requestBody") {
				name, err := s.SymbolName(SymbolRequest, id)
				if err != nil {
					return nil, err
				}
				out = append(out, Symbol{Kind: SymbolRequest, Source: id, Path: opPath, Name: name})
			}
			name, err := s.SymbolName(SymbolResponse, id)
			if err != nil {
				return nil, err
			}
			out = append(out, Symbol{Kind: SymbolResponse, Source: id, Path: opPath, Name: name})
		}
	}
	return out, nil
}
