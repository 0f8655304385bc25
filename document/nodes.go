package document

import (
	"go.yaml.in/yaml/v4"
)

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key     string
	KeyNode *yaml.Node
	Value   *yaml.Node
}

// Pairs returns the entries of a mapping node in document order.
// It returns nil for nil or non-mapping nodes.
func Pairs(m *yaml.Node) []Pair {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]Pair, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		out = append(out, Pair{Key: m.Content[i].Value, KeyNode: m.Content[i], Value: m.Content[i+1]})
	}
	return out
}

// Keys returns the keys of a mapping node in document order.
func Keys(m *yaml.Node) []string {
	pairs := Pairs(m)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

func indexOf(m *yaml.Node, key string) int {
	if m == nil || m.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

// Lookup returns the value stored under key in mapping m, or nil.
func Lookup(m *yaml.Node, key string) *yaml.Node {
	if i := indexOf(m, key); i >= 0 {
		return m.Content[i+1]
	}
	return nil
}

// LookupPath follows keys through nested mappings.
func LookupPath(n *yaml.Node, keys ...string) *yaml.Node {
	for _, k := range keys {
		n = Lookup(n, k)
		if n == nil {
			return nil
		}
	}
	return n
}

// Has reports whether mapping m contains key.
func Has(m *yaml.Node, key string) bool {
	return indexOf(m, key) >= 0
}

// Set stores val under key. An existing entry is replaced in place;
// a new entry is appended.
func Set(m *yaml.Node, key string, val *yaml.Node) {
	if i := indexOf(m, key); i >= 0 {
		m.Content[i+1] = val
		return
	}
	m.Content = append(m.Content, String(key), val)
}

// InsertAfter stores val under key directly after the entry named after.
// It behaves like Set when key already exists or after is missing.
func InsertAfter(m *yaml.Node, after, key string, val *yaml.Node) {
	if Has(m, key) {
		Set(m, key, val)
		return
	}
	i := indexOf(m, after)
	if i < 0 {
		Set(m, key, val)
		return
	}
	pos := i + 2
	m.Content = append(m.Content, nil, nil)
	copy(m.Content[pos+2:], m.Content[pos:])
	m.Content[pos] = String(key)
	m.Content[pos+1] = val
}

// Delete removes key from mapping m and reports whether it was present.
func Delete(m *yaml.Node, key string) bool {
	i := indexOf(m, key)
	if i < 0 {
		return false
	}
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
	return true
}

// Rename changes a key in place, keeping its position.
// It reports false when oldKey is missing or newKey already exists.
func Rename(m *yaml.Node, oldKey, newKey string) bool {
	i := indexOf(m, oldKey)
	if i < 0 {
		return false
	}
	if oldKey == newKey {
		return true
	}
	if Has(m, newKey) {
		return false
	}
	m.Content[i].Value = newKey
	return true
}

// RemoveAt removes the element at index i from sequence s.
func RemoveAt(s *yaml.Node, i int) {
	if s == nil || i < 0 || i >= len(s.Content) {
		return
	}
	s.Content = append(s.Content[:i], s.Content[i+1:]...)
}

// RemoveNode removes child from the content of s by identity.
// It reports whether child was found.
func RemoveNode(s *yaml.Node, child *yaml.Node) bool {
	if s == nil {
		return false
	}
	for i, c := range s.Content {
		if c == child {
			RemoveAt(s, i)
			return true
		}
	}
	return false
}

// IsMapping reports whether n is a mapping node.
func IsMapping(n *yaml.Node) bool { return n != nil && n.Kind == yaml.MappingNode }

// IsSequence reports whether n is a sequence node.
func IsSequence(n *yaml.Node) bool { return n != nil && n.Kind == yaml.SequenceNode }

// IsScalar reports whether n is a scalar node.
func IsScalar(n *yaml.Node) bool { return n != nil && n.Kind == yaml.ScalarNode }

// IsNull reports whether n is an explicit null scalar.
func IsNull(n *yaml.Node) bool {
	return IsScalar(n) && n.ShortTag() == "!!null"
}

// StringValue returns the value of a string scalar.
func StringValue(n *yaml.Node) (string, bool) {
	if !IsScalar(n) || n.ShortTag() != "!!str" {
		return "", false
	}
	return n.Value, true
}

// BoolValue returns the value of a boolean scalar.
func BoolValue(n *yaml.Node) (bool, bool) {
	if !IsScalar(n) || n.ShortTag() != "!!bool" {
		return false, false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

// IsTrue reports whether n is the boolean true.
func IsTrue(n *yaml.Node) bool {
	b, ok := BoolValue(n)
	return ok && b
}

// SequenceStrings returns the string members of a sequence.
// ok is false when s is not a sequence or holds a non-string member.
func SequenceStrings(s *yaml.Node) (values []string, ok bool) {
	if !IsSequence(s) {
		return nil, false
	}
	values = make([]string, 0, len(s.Content))
	for _, c := range s.Content {
		v, isStr := StringValue(c)
		if !isStr {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// KindName returns a JSON-flavoured name for the node's kind.
func KindName(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "object"
	case yaml.SequenceNode:
		return "array"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "string"
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		case "!!null":
			return "null"
		}
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	}
	return "unknown"
}

// String returns a new string scalar node.
func String(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Bool returns a new boolean scalar node.
func Bool(b bool) *yaml.Node {
	v := "false"
	if b {
		v = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v}
}

// Null returns a new null scalar node.
func Null() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// NewMapping builds a mapping node from alternating keys and values.
func NewMapping(kv ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		var val *yaml.Node
		switch v := kv[i+1].(type) {
		case *yaml.Node:
			val = v
		case string:
			val = String(v)
		case bool:
			val = Bool(v)
		default:
			val = Null()
		}
		m.Content = append(m.Content, String(key), val)
	}
	return m
}

// NewSequence builds a sequence node holding items.
func NewSequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// CloneNode returns a deep copy of n.
func CloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Alias != nil {
		out.Alias = CloneNode(n.Alias)
	}
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = CloneNode(c)
		}
	}
	return &out
}
