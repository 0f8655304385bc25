package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const refsDoc = `{
  "paths": {
    "/a": {"get": {"responses": {"200": {"$ref": "#/components/responses/R"}}}}
  },
  "components": {
    "schemas": {
      "P": {"properties": {"q": {"$ref": "#/components/schemas/Q"}}},
      "L": {"allOf": [{"$ref": "#/components/schemas/Q/properties/x"}]},
      "A/B": {"type": "string"},
      "Q": {"properties": {"x": {"type": "integer"}}}
    },
    "responses": {"R": {"description": "ok"}}
  }
}`

func TestRefs(t *testing.T) {
	doc := mustParse(t, refsDoc)
	sites := doc.Refs()
	require.Len(t, sites, 3)

	assert.Equal(t, "paths./a.get.responses.200", sites[0].Path)
	assert.Equal(t, "#/components/responses/R", sites[0].Ref)

	assert.Equal(t, "components.schemas.P.properties.q", sites[1].Path)
	assert.Equal(t, "q", sites[1].Key)
	assert.Equal(t, "properties", sites[1].ParentKey)
	assert.Same(t, LookupPath(doc.Root(), "components", "schemas", "P"), sites[1].Owner)

	assert.Equal(t, "components.schemas.L.allOf[0]", sites[2].Path)
	assert.Equal(t, "allOf", sites[2].ParentKey)
	assert.True(t, IsSequence(sites[2].Parent))
}

func TestRefsMatching(t *testing.T) {
	doc := mustParse(t, refsDoc)
	sites := doc.RefsMatching("#/components/schemas/Q")
	require.Len(t, sites, 2)
	assert.Equal(t, "components.schemas.P.properties.q", sites[0].Path)
	assert.Equal(t, "components.schemas.L.allOf[0]", sites[1].Path)

	assert.Empty(t, doc.RefsMatching("#/components/schemas/P"))
}

func TestWalkRefsStops(t *testing.T) {
	doc := mustParse(t, refsDoc)
	count := 0
	doc.WalkRefs(func(RefSite) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestResolve(t *testing.T) {
	doc := mustParse(t, refsDoc)

	n, err := doc.Resolve("#/components/schemas/Q/properties/x")
	require.NoError(t, err)
	v, _ := StringValue(Lookup(n, "type"))
	assert.Equal(t, "integer", v)

	n, err = doc.Resolve("#/components/schemas/A~1B")
	require.NoError(t, err)
	v, _ = StringValue(Lookup(n, "type"))
	assert.Equal(t, "string", v)

	n, err = doc.Resolve("#/components/schemas/L/allOf/0")
	require.NoError(t, err)
	assert.Equal(t, "#/components/schemas/Q/properties/x", RefOf(n))

	root, err := doc.Resolve("#")
	require.NoError(t, err)
	assert.Same(t, doc.Root(), root)

	for _, bad := range []string{"other.json#/a", "#/missing", "#/components/schemas/L/allOf/9", "#nope"} {
		_, err := doc.Resolve(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveRefs(t *testing.T) {
	doc := mustParse(t, `{"components":{"parameters":{
    "A":{"$ref":"#/components/parameters/B"},
    "B":{"name":"apiVersion","in":"path"},
    "C":{"$ref":"#/components/parameters/D"},
    "D":{"$ref":"#/components/parameters/C"}}}}`)

	start, err := doc.Resolve("#/components/parameters/A")
	require.NoError(t, err)
	target, err := doc.ResolveRefs(start)
	require.NoError(t, err)
	name, _ := StringValue(Lookup(target, "name"))
	assert.Equal(t, "apiVersion", name)

	loop, err := doc.Resolve("#/components/parameters/C")
	require.NoError(t, err)
	_, err = doc.ResolveRefs(loop)
	assert.ErrorContains(t, err, "circular")
}

func TestPointerEscaping(t *testing.T) {
	assert.Equal(t, "a~1b~0c", EscapePointerToken("a/b~c"))
	assert.Equal(t, "a/b~c", UnescapePointerToken("a~1b~0c"))
	assert.Equal(t, "~1", UnescapePointerToken("~01"))
}
