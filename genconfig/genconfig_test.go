package genconfig

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults("")

	require.NotNil(t, s.Kubb)
	assert.Equal(t, DefaultInput, s.Kubb.Input.Path)
	assert.Equal(t, DefaultInput, s.OpenAPITS.Input)
	assert.True(t, s.Kubb.Output.Clean)
	assert.Equal(t, "inherit", s.Kubb.Plugins.Oas.Discriminator)
	assert.Equal(t, "4", s.Kubb.Plugins.Zod.Version)
	assert.Equal(t, []Exclude{
		{Type: ExcludeOperationID, Pattern: "get-maintenance-200"},
		{Type: ExcludeOperationID, Pattern: "get-maintenance"},
		{Type: ExcludePath, Pattern: "/{apiVersion}/account/maintenance"},
	}, s.Kubb.Plugins.Faker.Exclude)
	assert.True(t, s.OpenAPITS.Parser.Transforms.PropertiesRequiredByDefault)
	assert.NoError(t, s.Validate())

	assert.Equal(t, "spec.json", Defaults("spec.json").Kubb.Input.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Set)
		option string
	}{
		{
			name: "unknown exclude type",
			mutate: func(s *Set) {
				s.Kubb.Plugins.Faker.Exclude[0].Type = "header"
			},
			option: "generators.kubb.plugins.faker.exclude[0].type",
		},
		{
			name: "empty exclude pattern",
			mutate: func(s *Set) {
				s.Kubb.Plugins.Faker.Exclude[1].Pattern = ""
			},
			option: "generators.kubb.plugins.faker.exclude[1].pattern",
		},
		{
			name: "unparsable template",
			mutate: func(s *Set) {
				s.OpenAPITS.Plugins.Zod.Requests = "{{.Name"
			},
			option: "generators.openapi_ts.plugins.zod.requests",
		},
		{
			name: "template with unknown field",
			mutate: func(s *Set) {
				s.OpenAPITS.Plugins.Zod.Definitions = "{{.Missing}}"
			},
			option: "generators.openapi_ts.plugins.zod.definitions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults("")
			tt.mutate(s)

			err := s.Validate()

			var cerr *oaserrors.ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.option, cerr.Option)
		})
	}

	t.Run("nil set", func(t *testing.T) {
		var s *Set
		assert.NoError(t, s.Validate())
	})
}

func TestSymbolName(t *testing.T) {
	s := Defaults("")

	tests := []struct {
		kind SymbolKind
		name string
		want string
	}{
		{SymbolDefinition, "LinodeInstance", "linodeInstanceSchema"},
		{SymbolRequest, "post-linode-instance", "postLinodeInstanceRequestSchema"},
		{SymbolResponse, "get-linode-instances", "getLinodeInstancesResponseSchema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SymbolName(tt.kind, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("custom template with case funcs", func(t *testing.T) {
		s := Defaults("")
		s.OpenAPITS.Plugins.Zod.Definitions = "z{{pascal .Raw}}"
		got, err := s.SymbolName(SymbolDefinition, "linode_instance")
		require.NoError(t, err)
		assert.Equal(t, "zLinodeInstance", got)

		s.OpenAPITS.Plugins.Zod.Responses = "{{snake .Raw}}_{{.Kind}}"
		got, err = s.SymbolName(SymbolResponse, "getRegions")
		require.NoError(t, err)
		assert.Equal(t, "get_regions_response", got)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := s.SymbolName("mock", "x")
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})

	t.Run("nil set uses default templates", func(t *testing.T) {
		var s *Set
		got, err := s.SymbolName(SymbolDefinition, "Region")
		require.NoError(t, err)
		assert.Equal(t, "regionSchema", got)
	})
}

func TestNameTemplatePattern(t *testing.T) {
	got, err := DefaultDefinitionsTemplate.Pattern()
	require.NoError(t, err)
	assert.Equal(t, "{{name}}Schema", got)

	_, err = NameTemplate("").Pattern()
	assert.Error(t, err)
}

func TestSymbols(t *testing.T) {
	doc, err := document.Parse([]byte(`{
  "openapi": "3.0.3",
  "paths": {
    "/linode/instances": {
      "get": {"operationId": "getLinodeInstances"},
      "post": {"operationId": "postLinodeInstance", "requestBody": {}}
    },
    "/regions": {"get": {}}
  },
  "components": {"schemas": {"Region": {"type": "object"}}}
}`), "openapi.json")
	require.NoError(t, err)

	symbols, err := Defaults("").Symbols(doc)
	require.NoError(t, err)

	assert.Equal(t, []Symbol{
		{Kind: SymbolDefinition, Source: "Region", Path: "components.schemas.Region", Name: "regionSchema"},
		{Kind: SymbolResponse, Source: "getLinodeInstances", Path: "paths./linode/instances.get", Name: "getLinodeInstancesResponseSchema"},
		{Kind: SymbolRequest, Source: "postLinodeInstance", Path: "paths./linode/instances.post", Name: "postLinodeInstanceRequestSchema"},
		{Kind: SymbolResponse, Source: "postLinodeInstance", Path: "paths./linode/instances.post", Name: "postLinodeInstanceResponseSchema"},
	}, symbols)
}

func TestReconcile(t *testing.T) {
	t.Run("rewrites renamed paths", func(t *testing.T) {
		s := Defaults("")

		changes := s.Reconcile(map[string]string{
			"/{apiVersion}/account/maintenance": "/account/maintenance",
		}, nil)

		require.Len(t, changes, 1)
		assert.Equal(t, Change{
			Location: "kubb.plugins.faker.exclude[2]",
			Before:   "/{apiVersion}/account/maintenance",
			After:    "/account/maintenance",
			Reason:   "path renamed",
		}, changes[0])
		assert.Equal(t, "/account/maintenance", s.Kubb.Plugins.Faker.Exclude[2].Pattern)

		assert.Empty(t, s.Reconcile(map[string]string{
			"/{apiVersion}/account/maintenance": "/account/maintenance",
		}, nil), "second pass changes nothing")
	})

	t.Run("drops removed schemas and duplicates", func(t *testing.T) {
		s := Defaults("")
		s.Kubb.Plugins.Faker.Exclude = []Exclude{
			{Type: ExcludeSchema, Pattern: "Gone"},
			{Type: ExcludeSchema, Pattern: "Kept"},
			{Type: ExcludeOperationID, Pattern: "op"},
			{Type: ExcludeOperationID, Pattern: "op"},
		}

		changes := s.Reconcile(nil, []string{"Gone"})

		require.Len(t, changes, 2)
		assert.Equal(t, "schema removed", changes[0].Reason)
		assert.Equal(t, `kubb.plugins.faker.exclude[3]: removed "op" (duplicate exclude)`, changes[1].String())
		assert.Equal(t, []Exclude{
			{Type: ExcludeSchema, Pattern: "Kept"},
			{Type: ExcludeOperationID, Pattern: "op"},
		}, s.Kubb.Plugins.Faker.Exclude)
	})

	t.Run("no faker plugin", func(t *testing.T) {
		s := Defaults("")
		s.Kubb.Plugins.Faker = nil
		assert.Nil(t, s.Reconcile(map[string]string{"/a": "/b"}, nil))
	})
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()

	written, err := Defaults("").WriteJSON(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, KubbFileName),
		filepath.Join(dir, OpenAPITSFileName),
	}, written)

	data, err := os.ReadFile(filepath.Join(dir, OpenAPITSFileName))
	require.NoError(t, err)
	var ts struct {
		Input   string           `json:"input"`
		Plugins []map[string]any `json:"plugins"`
	}
	require.NoError(t, json.Unmarshal(data, &ts))
	assert.Equal(t, DefaultInput, ts.Input)
	require.Len(t, ts.Plugins, 3)
	assert.Equal(t, "@hey-api/client-fetch", ts.Plugins[0]["name"])
	assert.Equal(t, true, ts.Plugins[0]["throwOnError"])
	assert.Equal(t, "@hey-api/sdk", ts.Plugins[1]["name"])
	assert.Equal(t, "data", ts.Plugins[1]["responseStyle"])
	assert.Equal(t, "zod", ts.Plugins[2]["name"])
	assert.Equal(t, map[string]any{"name": "{{name}}Schema"}, ts.Plugins[2]["definitions"])

	data, err = os.ReadFile(filepath.Join(dir, KubbFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pattern": "/{apiVersion}/account/maintenance"`)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	t.Run("invalid set writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		s := Defaults("")
		s.OpenAPITS.Plugins.Zod.Responses = "{{"

		written, err := s.WriteJSON(dir)

		require.Error(t, err)
		assert.Empty(t, written)
		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})
}
