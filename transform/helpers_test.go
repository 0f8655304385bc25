package transform

import (
	"testing"

	"github.com/erraggy/oasprep/document"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func parseDoc(t *testing.T, src string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(src), "test.json")
	require.NoError(t, err)
	return doc
}

// render returns the compact JSON form of doc.
func render(t *testing.T, doc *document.Document) string {
	t.Helper()
	out, err := doc.MarshalOrderedJSON()
	require.NoError(t, err)
	return string(out)
}

func renderNode(t *testing.T, n *yaml.Node) string {
	t.Helper()
	out, err := document.MarshalNodeJSON(n)
	require.NoError(t, err)
	return string(out)
}

func fixTypes(r *Result) []FixType {
	types := make([]FixType, len(r.Fixes))
	for i, f := range r.Fixes {
		types[i] = f.Type
	}
	return types
}
