package transform

import (
	"errors"
	"testing"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const removeDoc = `{
  "openapi": "3.0.3",
  "paths": {
    "/maintenance": {"get": {"responses": {"200": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Maintenance"}}}}}}}
  },
  "components": {
    "schemas": {
      "Maintenance": {"type": "object", "properties": {"when": {"type": "string"}}},
      "Account": {
        "type": "object",
        "properties": {
          "id": {"type": "integer"},
          "maintenance": {"$ref": "#/components/schemas/Maintenance"},
          "when": {"$ref": "#/components/schemas/Maintenance/properties/when"}
        },
        "required": ["id", "maintenance", "when"]
      },
      "Event": {
        "allOf": [{"$ref": "#/components/schemas/Maintenance"}],
        "oneOf": [{"$ref": "#/components/schemas/Account"}, {"$ref": "#/components/schemas/Maintenance"}],
        "discriminator": {"propertyName": "kind", "mapping": {"a": "#/components/schemas/Account", "m": "#/components/schemas/Maintenance"}}
      }
    }
  }
}`

func TestRemoveSchemas(t *testing.T) {
	t.Run("no names is a no-op", func(t *testing.T) {
		doc := parseDoc(t, removeDoc)
		before := render(t, doc)
		require.NoError(t, RemoveSchemas{}.Apply(doc, &Result{}))
		assert.Equal(t, before, render(t, doc))
	})

	t.Run("missing name is a warning", func(t *testing.T) {
		doc := parseDoc(t, removeDoc)
		result := &Result{}
		require.NoError(t, RemoveSchemas{Names: []string{"Nope"}}.Apply(doc, result))
		assert.Equal(t, []string{`schema "Nope" not found`}, result.Warnings)
		assert.Empty(t, result.RemovedSchemas)
	})

	t.Run("unreferenced schema is removed", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.0","components":{"schemas":{"A":{},"B":{}}}}`)
		result := &Result{}
		require.NoError(t, RemoveSchemas{Names: []string{"A"}}.Apply(doc, result))
		assert.Equal(t, []string{"B"}, document.Keys(doc.SchemasNode()))
		assert.Equal(t, []string{"A"}, result.RemovedSchemas)
		assert.Equal(t, []FixType{FixTypeRemovedSchema}, fixTypes(result))
		assert.Equal(t, "components.schemas.A", result.Fixes[0].Path)
	})

	t.Run("dangling references are an error", func(t *testing.T) {
		doc := parseDoc(t, removeDoc)

		err := RemoveSchemas{Names: []string{"Maintenance"}}.Apply(doc, &Result{})

		var terr *oaserrors.TransformError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, "remove-schemas", terr.Step)
		assert.Equal(t, []string{
			"paths./maintenance.get.responses.200.content.application/json.schema -> #/components/schemas/Maintenance",
			"components.schemas.Account.properties.maintenance -> #/components/schemas/Maintenance",
			"components.schemas.Account.properties.when -> #/components/schemas/Maintenance/properties/when",
			"components.schemas.Event.allOf[0] -> #/components/schemas/Maintenance",
			"components.schemas.Event.oneOf[1] -> #/components/schemas/Maintenance",
			"components.schemas.Event.discriminator.mapping.m -> #/components/schemas/Maintenance",
		}, terr.Details)
	})

	t.Run("prune removes referencing nodes", func(t *testing.T) {
		doc := parseDoc(t, removeDoc)
		result := &Result{}

		require.NoError(t, RemoveSchemas{Names: []string{"Maintenance"}, Dangling: DanglingPrune}.Apply(doc, result))

		assert.Empty(t, doc.RefsMatching("#/components/schemas/Maintenance"))
		assert.Equal(t,
			`{"type":"object","properties":{"id":{"type":"integer"}},"required":["id"]}`,
			renderNode(t, document.LookupPath(doc.Root(), "components", "schemas", "Account")))
		assert.Equal(t,
			`{"oneOf":[{"$ref":"#/components/schemas/Account"}],"discriminator":{"propertyName":"kind","mapping":{"a":"#/components/schemas/Account"}}}`,
			renderNode(t, document.LookupPath(doc.Root(), "components", "schemas", "Event")))
		assert.Equal(t, `{"200":{"content":{"application/json":{}}}}`,
			renderNode(t, document.LookupPath(doc.Root(), "paths", "/maintenance", "get", "responses")))

		counts := map[FixType]int{}
		for _, f := range result.Fixes {
			counts[f.Type]++
		}
		assert.Equal(t, map[FixType]int{FixTypeRemovedSchema: 1, FixTypePrunedReference: 6}, counts)
	})

	t.Run("prune follows schemas that only referenced a removed schema", func(t *testing.T) {
		doc := parseDoc(t, `{
  "openapi": "3.0.3",
  "paths": {"/a": {"get": {"responses": {"200": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Alias"}}}}}}}},
  "components": {
    "schemas": {
      "Broken": {"type": "object"},
      "Alias": {"$ref": "#/components/schemas/Broken"},
      "Wrapper": {"type": "object", "properties": {"a": {"$ref": "#/components/schemas/Alias"}}, "required": ["a"]}
    }
  }
}`)
		result := &Result{}

		require.NoError(t, RemoveSchemas{Names: []string{"Broken"}, Dangling: DanglingPrune}.Apply(doc, result))

		assert.Empty(t, doc.Refs())
		assert.Equal(t, []string{"Wrapper"}, document.Keys(doc.SchemasNode()))
		assert.Equal(t, []string{"Broken", "Alias"}, result.RemovedSchemas)
		assert.Equal(t, `{"type":"object","properties":{}}`,
			renderNode(t, document.LookupPath(doc.Root(), "components", "schemas", "Wrapper")))
	})

	t.Run("error policy reports references through an alias", func(t *testing.T) {
		doc := parseDoc(t, `{"openapi":"3.0.3","components":{"schemas":{"Broken":{},"Alias":{"$ref":"#/components/schemas/Broken"}}}}`)
		err := RemoveSchemas{Names: []string{"Broken"}}.Apply(doc, &Result{})
		var terr *oaserrors.TransformError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, []string{"components.schemas.Alias -> #/components/schemas/Broken"}, terr.Details)
	})

	t.Run("swagger definitions", func(t *testing.T) {
		doc := parseDoc(t, `{"swagger":"2.0","definitions":{"A":{},"B":{"properties":{"a":{"$ref":"#/definitions/A"}}}}}`)
		err := RemoveSchemas{Names: []string{"A"}}.Apply(doc, &Result{})
		var terr *oaserrors.TransformError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, []string{"definitions.B.properties.a -> #/definitions/A"}, terr.Details)
	})

	t.Run("invalid policy", func(t *testing.T) {
		err := RemoveSchemas{Names: []string{"A"}, Dangling: "ignore"}.Apply(parseDoc(t, removeDoc), &Result{})
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})
}
