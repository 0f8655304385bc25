package document

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// EscapePointerToken escapes a single JSON pointer reference token (RFC 6901).
func EscapePointerToken(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// UnescapePointerToken reverses EscapePointerToken.
func UnescapePointerToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// Resolve follows a local reference such as "#/components/schemas/Pet".
// Only fragment-only references into the document itself are supported.
func (d *Document) Resolve(ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, fmt.Errorf("external reference not supported: %s", ref)
	}
	frag := ref[1:]
	if unescaped, err := url.PathUnescape(frag); err == nil {
		frag = unescaped
	}
	if frag == "" {
		return d.root, nil
	}
	if !strings.HasPrefix(frag, "/") {
		return nil, fmt.Errorf("invalid JSON pointer: %s", ref)
	}

	node := d.root
	for _, raw := range strings.Split(frag[1:], "/") {
		token := UnescapePointerToken(raw)
		switch node.Kind {
		case yaml.MappingNode:
			next := Lookup(node, token)
			if next == nil {
				return nil, fmt.Errorf("reference not found: %s", ref)
			}
			node = next
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return nil, fmt.Errorf("reference not found: %s", ref)
			}
			node = node.Content[idx]
		default:
			return nil, fmt.Errorf("reference not found: %s", ref)
		}
	}
	return node, nil
}

// RefOf returns the $ref value of a reference object, or "".
func RefOf(n *yaml.Node) string {
	v, _ := StringValue(Lookup(n, "$ref"))
	return v
}

// ResolveRefs follows a chain of reference objects starting at n until it
// reaches a node without $ref. Cycles are reported as errors.
func (d *Document) ResolveRefs(n *yaml.Node) (*yaml.Node, error) {
	seen := make(map[string]bool)
	for {
		ref := RefOf(n)
		if ref == "" {
			return n, nil
		}
		if seen[ref] {
			return nil, fmt.Errorf("circular reference: %s", ref)
		}
		seen[ref] = true
		next, err := d.Resolve(ref)
		if err != nil {
			return nil, err
		}
		n = next
	}
}
