package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erraggy/oasprep/config"
	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/erraggy/oasprep/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linodeSpec = `{
  "openapi": "3.0.1",
  "info": {"title": "Linode API", "version": "4.0.0"},
  "servers": [{"url": "https://api.linode.com/{apiVersion}"}],
  "paths": {
    "/{apiVersion}/linode/instances": {
      "parameters": [{"name": "apiVersion", "in": "path", "required": true, "schema": {"type": "string"}}],
      "post": {
        "operationId": "createLinodeInstance",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/InstanceRequest"}}}},
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "schemas": {
      "InstanceRequest": {
        "type": "object",
        "properties": {
          "region": {"type": "string"},
          "type": {"type": "string"},
          "label": {"type": "string", "nullable": true},
          "notes": {"type": "string", "x-nullable": true}
        },
        "required": ["region"]
      }
    }
  }
}`

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quickFetcher() *fetcher.Fetcher {
	f := fetcher.New()
	f.Timeout = 5 * time.Second
	f.RetryDelay = 10 * time.Millisecond
	return f
}

func TestRunEndToEnd(t *testing.T) {
	srv := serve(t, linodeSpec)
	out := filepath.Join(t.TempDir(), "openapi.json")

	r, err := New(
		WithSource(srv.URL+"/openapi.json"),
		WithOutputPath(out),
		WithFetcher(quickFetcher()),
		WithVerify(true),
	)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Written)
	assert.Equal(t, transform.AllSteps, result.Steps)
	assert.Equal(t, []transform.PathRename{{From: "/{apiVersion}/linode/instances", To: "/linode/instances"}}, result.RenamedPaths)
	assert.Equal(t, map[transform.StepName]int{
		transform.StepStripPathSegment:  2,
		transform.StepOverrideServerURL: 1,
		transform.StepRequireProperties: 1,
		transform.StepNormalizeNullable: 1,
	}, result.StepCounts)
	assert.Equal(t, 5, result.FixCount)
	assert.Equal(t, document.Stats{PathCount: 1, OperationCount: 1, SchemaCount: 1, RefCount: 1}, result.InputStats)
	require.NotNil(t, result.Verification)
	assert.Equal(t, 1, result.Verification.Paths)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Data, data)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"openapi\": \"3.0.1\",\n"))
	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	doc, err := document.Parse(data, out)
	require.NoError(t, err)
	root := doc.Root()

	// paths./{apiVersion}/linode/instances -> /linode/instances, placeholder parameter gone
	paths := document.Lookup(root, "paths")
	assert.Equal(t, []string{"/linode/instances"}, document.Keys(paths))
	assert.False(t, document.Has(document.Lookup(paths, "/linode/instances"), "parameters"))

	servers := document.Lookup(root, "servers")
	require.Len(t, servers.Content, 1)
	url, _ := document.StringValue(document.Lookup(servers.Content[0], "url"))
	assert.Equal(t, "https://api.linode.com/v4/", url)

	schema := document.LookupPath(root, "components", "schemas", "InstanceRequest")
	required, ok := document.SequenceStrings(document.Lookup(schema, "required"))
	require.True(t, ok)
	assert.Equal(t, []string{"region", "type"}, required)
	assert.True(t, document.IsTrue(document.LookupPath(schema, "properties", "notes", "nullable")))
	assert.False(t, document.Has(document.LookupPath(schema, "properties", "notes"), "x-nullable"))
}

func TestRunIsDeterministic(t *testing.T) {
	srv := serve(t, linodeSpec)
	dir := t.TempDir()

	var outputs [][]byte
	for _, name := range []string{"a.json", "b.json"} {
		r, err := New(WithSource(srv.URL), WithOutputPath(filepath.Join(dir, name)), WithFetcher(quickFetcher()))
		require.NoError(t, err)
		_, err = r.Run(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		outputs = append(outputs, data)
	}
	assert.Equal(t, string(outputs[0]), string(outputs[1]))

	// A second pass over the output changes nothing but is still valid.
	doc, err := document.Parse(outputs[0], "a.json")
	require.NoError(t, err)
	r, err := New(WithDryRun(true))
	require.NoError(t, err)
	again, err := r.RunDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 0, again.FixCount)
	assert.Equal(t, string(outputs[0]), string(again.Data))
}

func TestRunFailureLeavesOutputUntouched(t *testing.T) {
	tests := []struct {
		name string
		body string
		opts []Option
		is   error
	}{
		{
			name: "invalid JSON",
			body: `{"openapi": `,
			is:   oaserrors.ErrParse,
		},
		{
			name: "path collision",
			body: `{"openapi":"3.0.1","paths":{"/{apiVersion}/a":{},"/a":{}}}`,
			is:   oaserrors.ErrTransform,
		},
		{
			name: "dangling reference",
			body: `{"openapi":"3.0.1","paths":{},"components":{"schemas":{"A":{"$ref":"#/components/schemas/B"},"B":{"type":"string"}}}}`,
			opts: []Option{WithRemoveSchemas("B")},
			is:   oaserrors.ErrTransform,
		},
		{
			name: "non-object server entry",
			body: `{"openapi":"3.0.1","servers":["https://example.com"],"paths":{}}`,
			is:   oaserrors.ErrParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.body)
			out := filepath.Join(t.TempDir(), "openapi.json")
			require.NoError(t, os.WriteFile(out, []byte("previous"), 0o600))

			r, err := New(append([]Option{WithSource(srv.URL), WithOutputPath(out), WithFetcher(quickFetcher())}, tt.opts...)...)
			require.NoError(t, err)

			_, err = r.Run(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
			data, _ := os.ReadFile(out)
			assert.Equal(t, "previous", string(data))
		})
	}
}

func TestRunWriteFailureLeavesOutputUntouched(t *testing.T) {
	t.Run("generator configs fail after serialization", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
		out := filepath.Join(dir, "openapi.json")
		require.NoError(t, os.WriteFile(out, []byte("previous"), 0o600))

		set := genconfig.Defaults("")
		set.OutputDir = filepath.Join(blocker, "gen")
		r, err := New(WithSource(serve(t, linodeSpec).URL), WithOutputPath(out),
			WithFetcher(quickFetcher()), WithGenerators(set))
		require.NoError(t, err)

		_, err = r.Run(context.Background())

		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrWrite), "got %v", err)
		data, _ := os.ReadFile(out)
		assert.Equal(t, "previous", string(data))
	})

	t.Run("symlinked output", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "target.json")
		require.NoError(t, os.WriteFile(target, []byte("previous"), 0o600))
		out := filepath.Join(dir, "openapi.json")
		require.NoError(t, os.Symlink(target, out))

		r, err := New(WithSource(serve(t, linodeSpec).URL), WithOutputPath(out), WithFetcher(quickFetcher()))
		require.NoError(t, err)

		_, err = r.Run(context.Background())

		var werr *oaserrors.WriteError
		require.True(t, errors.As(err, &werr), "got %v", err)
		assert.Equal(t, "check", werr.Op)
		data, _ := os.ReadFile(target)
		assert.Equal(t, "previous", string(data))
	})
}

func TestRunStepErrorNamesStep(t *testing.T) {
	doc, err := document.Parse([]byte(`{"openapi":"3.0.1","paths":{"/{apiVersion}/a":{},"/a":{}}}`), "test.json")
	require.NoError(t, err)
	r, err := New(WithDryRun(true))
	require.NoError(t, err)

	_, err = r.RunDocument(context.Background(), doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: step strip-path-segment:")
	var terr *oaserrors.TransformError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, string(transform.StepStripPathSegment), terr.Step)
}

func TestRunFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	out := filepath.Join(t.TempDir(), "openapi.json")

	r, err := New(WithSource(srv.URL), WithOutputPath(out), WithFetcher(quickFetcher()))
	require.NoError(t, err)
	_, err = r.Run(context.Background())

	var ferr *oaserrors.FetchError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, http.StatusNotFound, ferr.StatusCode)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunDocument(t *testing.T) {
	t.Run("clones input by default", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)
		before, err := doc.MarshalOrderedJSON()
		require.NoError(t, err)

		r, err := New(WithDryRun(true))
		require.NoError(t, err)
		result, err := r.RunDocument(context.Background(), doc)
		require.NoError(t, err)

		after, err := doc.MarshalOrderedJSON()
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
		assert.NotSame(t, doc, result.Document)
		assert.Equal(t, "linode.json", result.Source)
		assert.False(t, result.Written)
	})

	t.Run("mutable input is edited in place", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)

		r, err := New(WithDryRun(true), WithMutableInput(true))
		require.NoError(t, err)
		result, err := r.RunDocument(context.Background(), doc)
		require.NoError(t, err)

		assert.Same(t, doc, result.Document)
		assert.Equal(t, []string{"/linode/instances"}, document.Keys(document.Lookup(doc.Root(), "paths")))
	})

	t.Run("enabled steps", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)

		r, err := New(WithDryRun(true), WithEnabledSteps(transform.StepOverrideServerURL))
		require.NoError(t, err)
		result, err := r.RunDocument(context.Background(), doc)
		require.NoError(t, err)

		assert.Equal(t, []transform.StepName{transform.StepOverrideServerURL}, result.Steps)
		assert.Equal(t, 1, result.FixCount)
	})

	t.Run("disabled steps", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)

		r, err := New(WithDryRun(true), WithDisabledSteps(transform.StepRequireProperties, transform.StepNormalizeNullable))
		require.NoError(t, err)
		result, err := r.RunDocument(context.Background(), doc)
		require.NoError(t, err)

		assert.Equal(t, []transform.StepName{
			transform.StepStripPathSegment,
			transform.StepOverrideServerURL,
			transform.StepRemoveSchemas,
		}, result.Steps)
	})

	t.Run("yaml output", func(t *testing.T) {
		doc, err := document.Parse([]byte(`{"openapi":"3.1.0","servers":[{"url":"x"}],"paths":{}}`), "t.json")
		require.NoError(t, err)

		r, err := New(WithDryRun(true), WithFormat(config.FormatYAML))
		require.NoError(t, err)
		result, err := r.RunDocument(context.Background(), doc)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(string(result.Data), "openapi: 3.1.0\n"))
		back, err := document.Parse(result.Data, "out.yaml")
		require.NoError(t, err)
		assert.Equal(t, document.SourceFormatYAML, back.Format)
		want, err := result.Document.MarshalOrderedJSON()
		require.NoError(t, err)
		got, err := back.MarshalOrderedJSON()
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	})

	t.Run("cancelled context", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := New(WithDryRun(true))
		require.NoError(t, err)
		_, err = r.RunDocument(ctx, doc)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("output path required unless dry run", func(t *testing.T) {
		doc, err := document.Parse([]byte(linodeSpec), "linode.json")
		require.NoError(t, err)

		r, err := New()
		require.NoError(t, err)
		_, err = r.RunDocument(context.Background(), doc)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"empty source", WithSource("")},
		{"empty output", WithOutputPath("")},
		{"bad format", WithFormat("toml")},
		{"bad null style", WithNullStyle("sometimes")},
		{"bad dangling policy", WithDanglingPolicy("ignore")},
		{"unknown step", WithEnabledSteps("fix-everything")},
		{"empty server url", WithServerURL("")},
		{"nil fetcher", WithFetcher(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline: invalid options")
		})
	}
}

func TestGenerators(t *testing.T) {
	doc, err := document.Parse([]byte(`{
  "openapi": "3.0.1",
  "paths": {"/{apiVersion}/account/maintenance": {"get": {"operationId": "get-maintenance"}}},
  "components": {"schemas": {"Broken": {"type": "object"}}}
}`), "linode.json")
	require.NoError(t, err)

	set := genconfig.Defaults("")
	set.Kubb.Plugins.Faker.Exclude = append(set.Kubb.Plugins.Faker.Exclude,
		genconfig.Exclude{Type: genconfig.ExcludeSchema, Pattern: "Broken"})
	set.OutputDir = t.TempDir()
	out := filepath.Join(t.TempDir(), "openapi.json")

	r, err := New(WithOutputPath(out), WithGenerators(set), WithRemoveSchemas("Broken"))
	require.NoError(t, err)
	result, err := r.RunDocument(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, result.GeneratorChanges, 2)
	assert.Equal(t, "path renamed", result.GeneratorChanges[0].Reason)
	assert.Equal(t, "schema removed", result.GeneratorChanges[1].Reason)
	assert.Equal(t, "/account/maintenance", result.Generators.Kubb.Plugins.Faker.Exclude[2].Pattern)
	assert.Len(t, result.Generators.Kubb.Plugins.Faker.Exclude, 3)
	assert.Len(t, result.GeneratorFiles, 2)

	// The configured set is not modified.
	assert.Equal(t, "/{apiVersion}/account/maintenance", set.Kubb.Plugins.Faker.Exclude[2].Pattern)
	assert.Len(t, set.Kubb.Plugins.Faker.Exclude, 4)
}

func TestFromConfig(t *testing.T) {
	srv := serve(t, linodeSpec)
	cfg := config.Default()
	cfg.Source = srv.URL
	cfg.Output = filepath.Join(t.TempDir(), "openapi.yaml")
	cfg.Format = config.FormatYAML
	cfg.Transforms.ServerURL = "http://localhost:4010/v4/"
	cfg.Transforms.Disabled = []string{string(transform.StepRequireProperties)}
	cfg.Fetch.RetryDelay = 10 * time.Millisecond

	r, err := FromConfig(cfg)
	require.NoError(t, err)
	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, srv.URL, result.Source)
	assert.NotContains(t, result.Steps, transform.StepRequireProperties)
	assert.Contains(t, string(result.Data), "url: http://localhost:4010/v4/")

	t.Run("options override configuration", func(t *testing.T) {
		r, err := FromConfig(cfg, WithDryRun(true), WithServerURL("https://override.example/"))
		require.NoError(t, err)
		result, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.False(t, result.Written)
		assert.Contains(t, string(result.Data), "url: https://override.example/")
	})

	t.Run("invalid configuration", func(t *testing.T) {
		bad := config.Default()
		bad.Format = "xml"
		_, err := FromConfig(bad)
		assert.True(t, errors.Is(err, oaserrors.ErrConfig))
	})
}
