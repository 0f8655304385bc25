package genconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/erraggy/oasprep/internal/fileutil"
)

// Output file names written by WriteJSON.
const (
	KubbFileName      = "kubb.config.json"
	OpenAPITSFileName = "openapi-ts.config.json"
)

// zodPluginJSON is the zod plugin entry in openapi-ts's plugin array.
type zodPluginJSON struct {
	Name            string         `json:"name"`
	Definitions     namePatternRef `json:"definitions"`
	Requests        namePatternRef `json:"requests"`
	Responses       namePatternRef `json:"responses"`
	ExportFromIndex *bool          `json:"exportFromIndex,omitempty"`
}

type namePatternRef struct {
	Name string `json:"name"`
}

// MarshalJSON writes the plugins as openapi-ts expects them: an array of
// objects, each carrying the plugin package in "name".
func (p OpenAPITSPlugins) MarshalJSON() ([]byte, error) {
	plugins := make([]any, 0, 3)
	if p.ClientFetch != nil {
		plugins = append(plugins, struct {
			Name string `json:"name"`
			*ClientFetchPlugin
		}{"@hey-api/client-fetch", p.ClientFetch})
	}
	if p.SDK != nil {
		plugins = append(plugins, struct {
			Name string `json:"name"`
			*SDKPlugin
		}{"@hey-api/sdk", p.SDK})
	}
	if p.Zod != nil {
		entry := zodPluginJSON{Name: "zod", ExportFromIndex: p.Zod.ExportFromIndex}
		for _, f := range []struct {
			tmpl NameTemplate
			dst  *namePatternRef
		}{
			{p.Zod.Definitions, &entry.Definitions},
			{p.Zod.Requests, &entry.Requests},
			{p.Zod.Responses, &entry.Responses},
		} {
			pattern, err := f.tmpl.Pattern()
			if err != nil {
				return nil, err
			}
			f.dst.Name = pattern
		}
		plugins = append(plugins, entry)
	}
	return json.Marshal(plugins)
}

// MarshalIndentJSON encodes v as two-space indented JSON with a trailing
// newline and without HTML escaping.
func MarshalIndentJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("genconfig: encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON writes each configured generator's configuration into dir and
// returns the written paths. Files are replaced atomically.
func (s *Set) WriteJSON(dir string) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var written []string
	for _, f := range []struct {
		name string
		v    any
		ok   bool
	}{
		{KubbFileName, s.Kubb, s.Kubb != nil},
		{OpenAPITSFileName, s.OpenAPITS, s.OpenAPITS != nil},
	} {
		if !f.ok {
			continue
		}
		data, err := MarshalIndentJSON(f.v)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, f.name)
		if err := fileutil.WriteFileAtomic(path, data, fileutil.ReadableByAll); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
