package document

// Methods lists the operation keys of a path item in the order they are visited.
var Methods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace", "query"}

// Stats summarizes the size of a document.
type Stats struct {
	PathCount      int `json:"paths"`
	OperationCount int `json:"operations"`
	SchemaCount    int `json:"schemas"`
	RefCount       int `json:"refs"`
}

// Stats counts paths, operations, named schemas, and references.
func (d *Document) Stats() Stats {
	var s Stats
	for _, p := range Pairs(Lookup(d.root, "paths")) {
		s.PathCount++
		for _, m := range Methods {
			if IsMapping(Lookup(p.Value, m)) {
				s.OperationCount++
			}
		}
	}
	s.SchemaCount = len(Pairs(d.SchemasNode()))
	d.WalkRefs(func(RefSite) bool {
		s.RefCount++
		return true
	})
	return s
}
