package transform

import (
	"errors"
	"testing"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripPathSegment(t *testing.T) {
	t.Run("removes segment and parameter", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.1","paths":{"/{apiVersion}/linode/instances":{"parameters":[{"name":"apiVersion","in":"path","required":true,"schema":{"type":"string"}}],"get":{"responses":{"200":{"description":"ok"}}}}}}`)
		result := &Result{}

		require.NoError(t, StripPathSegment{}.Apply(doc, result))

		assert.Equal(t, `{"openapi":"3.0.1","paths":{"/linode/instances":{"get":{"responses":{"200":{"description":"ok"}}}}}}`, render(t, doc))
		assert.Equal(t, []FixType{FixTypeRenamedPath, FixTypeRemovedParameter}, fixTypes(result))
		if diff := cmp.Diff([]PathRename{{From: "/{apiVersion}/linode/instances", To: "/linode/instances"}}, result.RenamedPaths); diff != "" {
			t.Errorf("renamed paths mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "paths./linode/instances.parameters[0]", result.Fixes[1].Path)
	})

	t.Run("keeps path order", func(t *testing.T) {
		doc := parseDoc(t, `{"paths":{"/a":{},"/{apiVersion}/b":{},"/c":{},"/{apiVersion}":{}}}`)
		require.NoError(t, StripPathSegment{}.Apply(doc, &Result{}))
		assert.Equal(t, []string{"/a", "/b", "/c", "/"}, document.Keys(document.Lookup(doc.Root(), "paths")))
	})

	t.Run("no matching paths", func(t *testing.T) {
		src := `{"paths":{"/a":{"parameters":[{"name":"apiVersion","in":"path"}]}}}`
		doc := parseDoc(t, src)
		result := &Result{}
		require.NoError(t, StripPathSegment{}.Apply(doc, result))
		assert.Equal(t, src, render(t, doc))
		assert.Empty(t, result.Fixes)
	})

	t.Run("no paths", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.0"}`)
		assert.NoError(t, StripPathSegment{}.Apply(doc, &Result{}))
	})

	t.Run("custom parameter", func(t *testing.T) {
		doc := parseDoc(t, `{"paths":{"/{version}/things/{id}":{"parameters":[{"name":"version","in":"path"},{"name":"id","in":"path"}]}}}`)
		require.NoError(t, StripPathSegment{Parameter: "version"}.Apply(doc, &Result{}))
		assert.Equal(t, `{"paths":{"/things/{id}":{"parameters":[{"name":"id","in":"path"}]}}}`, render(t, doc))
	})

	t.Run("operation parameters must be in path", func(t *testing.T) {
		doc := parseDoc(t, `{"paths":{"/{apiVersion}/x":{"get":{"parameters":[{"name":"apiVersion","in":"path"},{"name":"apiVersion","in":"query"}]}}}}`)
		require.NoError(t, StripPathSegment{}.Apply(doc, &Result{}))
		assert.Equal(t, `{"paths":{"/x":{"get":{"parameters":[{"name":"apiVersion","in":"query"}]}}}}`, render(t, doc))
	})

	t.Run("referenced parameter and unused component", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.0","paths":{"/{apiVersion}/x":{"parameters":[{"$ref":"#/components/parameters/apiVersion"},{"name":"page","in":"query"}]}},"components":{"parameters":{"apiVersion":{"name":"apiVersion","in":"path","required":true},"page":{"name":"page","in":"query"}}}}`)
		result := &Result{}

		require.NoError(t, StripPathSegment{}.Apply(doc, result))

		assert.Equal(t, `{"openapi":"3.0.0","paths":{"/x":{"parameters":[{"name":"page","in":"query"}]}},"components":{"parameters":{"page":{"name":"page","in":"query"}}}}`, render(t, doc))
		assert.Equal(t, []FixType{FixTypeRenamedPath, FixTypeRemovedParameter, FixTypeRemovedComponentParameter}, fixTypes(result))
		assert.Equal(t, "#/components/parameters/apiVersion", result.Fixes[1].Before)
		assert.Equal(t, "components.parameters.apiVersion", result.Fixes[2].Path)
	})

	t.Run("component still referenced is kept", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.0","paths":{"/{apiVersion}/x":{"parameters":[{"$ref":"#/components/parameters/v"}]},"/other/{apiVersion}":{"parameters":[]},"/legacy":{"parameters":[{"$ref":"#/components/parameters/v"}]}},"components":{"parameters":{"v":{"name":"apiVersion","in":"path"}}}}`)
		require.NoError(t, StripPathSegment{}.Apply(doc, &Result{}))
		assert.NotNil(t, document.LookupPath(doc.Root(), "components", "parameters", "v"))
	})

	t.Run("collision with existing path", func(t *testing.T) {
		src := `{"paths":{"/{apiVersion}/x":{"get":{}},"/x":{"post":{}}}}`
		doc := parseDoc(t, src)

		err := StripPathSegment{}.Apply(doc, &Result{})

		var terr *oaserrors.TransformError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "strip-path-segment", terr.Step)
		assert.Equal(t, "paths./{apiVersion}/x", terr.Path)
		assert.Equal(t, src, render(t, doc))
	})

	t.Run("two paths strip to the same key", func(t *testing.T) {
		src := `{"paths":{"/{apiVersion}/x":{},"/x/{apiVersion}":{}}}`
		doc := parseDoc(t, src)

		err := StripPathSegment{}.Apply(doc, &Result{})

		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrTransform))
		assert.Contains(t, err.Error(), `both become "/x"`)
		assert.Equal(t, src, render(t, doc))
	})

	malformed := []struct {
		name string
		src  string
	}{
		{"parameter without name", `{"paths":{"/{apiVersion}/x":{"parameters":[{"in":"path"}]}}}`},
		{"parameter not an object", `{"paths":{"/{apiVersion}/x":{"parameters":["apiVersion"]}}}`},
		{"parameters not an array", `{"paths":{"/{apiVersion}/x":{"parameters":{"name":"apiVersion"}}}}`},
		{"unresolvable reference", `{"paths":{"/{apiVersion}/x":{"parameters":[{"$ref":"#/components/parameters/missing"}]}}}`},
		{"paths not an object", `{"paths":[]}`},
	}
	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			err := StripPathSegment{}.Apply(parseDoc(t, tt.src), &Result{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, oaserrors.ErrParse), "got %v", err)
		})
	}
}

func TestStripPath(t *testing.T) {
	s := StripPathSegment{}
	assert.Equal(t, "/{apiVersion}", s.Segment())
	assert.Equal(t, "/linode/instances", s.StripPath("/{apiVersion}/linode/instances"))
	assert.Equal(t, "/", s.StripPath("/{apiVersion}"))
	assert.Equal(t, "/a/b", s.StripPath("/a/{apiVersion}/b"))
	assert.Equal(t, "/{apiVersionX}", s.StripPath("/{apiVersionX}"))
}
