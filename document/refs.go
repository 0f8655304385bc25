package document

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// RefSite is one occurrence of a $ref in the document.
type RefSite struct {
	// Ref is the reference string.
	Ref string
	// Path locates the reference object, e.g. "paths./users.get.responses.200".
	Path string
	// Node is the reference object (the mapping holding "$ref").
	Node *yaml.Node
	// Parent is the container holding Node. It is nil for the root.
	Parent *yaml.Node
	// Key is the key of Node in Parent when Parent is a mapping.
	Key string
	// ParentKey is the key under which Parent sits in Owner.
	ParentKey string
	// Owner is the mapping holding Parent. It may be nil.
	Owner *yaml.Node
	// Line is the source line of the reference, when known.
	Line int
}

// JoinPath appends a mapping key to a dotted location path.
func JoinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// IndexPath appends a sequence index to a dotted location path.
func IndexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

// Refs returns every $ref in the document in document order.
func (d *Document) Refs() []RefSite {
	var sites []RefSite
	d.WalkRefs(func(s RefSite) bool {
		sites = append(sites, s)
		return true
	})
	return sites
}

// RefsMatching returns the $ref sites whose reference equals target or
// points inside it ("target/...").
func (d *Document) RefsMatching(target string) []RefSite {
	var sites []RefSite
	d.WalkRefs(func(s RefSite) bool {
		if s.Ref == target || strings.HasPrefix(s.Ref, target+"/") {
			sites = append(sites, s)
		}
		return true
	})
	return sites
}

// WalkRefs calls fn for every $ref in document order until fn returns false.
func (d *Document) WalkRefs(fn func(RefSite) bool) {
	w := refWalker{fn: fn}
	w.walk(d.root, "", nil, "", "", nil)
}

type refWalker struct {
	fn      func(RefSite) bool
	stopped bool
}

func (w *refWalker) walk(n *yaml.Node, path string, parent *yaml.Node, key, parentKey string, owner *yaml.Node) {
	if w.stopped || n == nil {
		return
	}
	switch n.Kind {
	case yaml.MappingNode:
		if ref, ok := StringValue(Lookup(n, "$ref")); ok {
			site := RefSite{
				Ref:       ref,
				Path:      path,
				Node:      n,
				Parent:    parent,
				Key:       key,
				ParentKey: parentKey,
				Owner:     owner,
				Line:      n.Line,
			}
			if !w.fn(site) {
				w.stopped = true
				return
			}
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			w.walk(n.Content[i+1], JoinPath(path, k), n, k, key, parent)
		}
	case yaml.SequenceNode:
		for i, c := range n.Content {
			w.walk(c, IndexPath(path, i), n, "", key, parent)
		}
	}
}
