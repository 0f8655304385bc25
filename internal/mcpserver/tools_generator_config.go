package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type generatorConfigInput struct {
	Spec          *specInput `json:"spec,omitempty"           jsonschema:"Optional OAS document; when set the transform pipeline runs and the configs are reconciled with it"`
	Input         string     `json:"input,omitempty"          jsonschema:"Document path the generators read (default ./openapi.json)"`
	ServerURL     string     `json:"server_url,omitempty"     jsonschema:"URL written to servers[0].url during the transform"`
	Parameter     string     `json:"parameter,omitempty"      jsonschema:"Path parameter stripped during the transform (default apiVersion)"`
	RemoveSchemas []string   `json:"remove_schemas,omitempty" jsonschema:"Component schema names removed during the transform"`
	Dangling      string     `json:"dangling,omitempty"       jsonschema:"References to removed schemas: error (default) or prune"`
	Symbols       bool       `json:"symbols,omitempty"        jsonschema:"List the zod symbol names generated for the spec (requires spec)"`
	OutputDir     string     `json:"output_dir,omitempty"     jsonschema:"Directory to write kubb.config.json and openapi-ts.config.json to"`
	Offset        int        `json:"offset,omitempty"         jsonschema:"Skip the first N symbols (for pagination)"`
	Limit         int        `json:"limit,omitempty"          jsonschema:"Maximum number of symbols to return (default 100)"`
}

type generatorConfigOutput struct {
	Source      string             `json:"source,omitempty"`
	Kubb        map[string]any     `json:"kubb"`
	OpenAPITS   map[string]any     `json:"openapi_ts"`
	Changes     []genconfig.Change `json:"changes,omitempty"`
	Symbols     []genconfig.Symbol `json:"symbols,omitempty"`
	SymbolCount int                `json:"symbol_count,omitempty"`
	WrittenTo   []string           `json:"written_to,omitempty"`
}

func handleGeneratorConfig(ctx context.Context, _ *mcp.CallToolRequest, input generatorConfigInput) (*mcp.CallToolResult, generatorConfigOutput, error) {
	if input.Symbols && input.Spec == nil {
		return errResult(fmt.Errorf("symbols requires spec")), generatorConfigOutput{}, nil
	}

	set := genconfig.Defaults(input.Input)
	var output generatorConfigOutput

	if input.Spec != nil {
		result, err := runTransform(ctx, *input.Spec, transformInput{
			ServerURL:     input.ServerURL,
			Parameter:     input.Parameter,
			RemoveSchemas: input.RemoveSchemas,
			Dangling:      input.Dangling,
		}, []pipeline.Option{pipeline.WithGenerators(set)})
		if err != nil {
			return errResult(err), generatorConfigOutput{}, nil
		}
		set = result.Generators
		output.Source = describeSource(*input.Spec)
		output.Changes = result.GeneratorChanges

		if input.Symbols {
			symbols, err := set.Symbols(result.Document)
			if err != nil {
				return errResult(err), generatorConfigOutput{}, nil
			}
			output.SymbolCount = len(symbols)
			output.Symbols = paginate(symbols, input.Offset, input.Limit)
		}
	}

	var err error
	if output.Kubb, err = toObject(set.Kubb); err != nil {
		return errResult(err), generatorConfigOutput{}, nil
	}
	if output.OpenAPITS, err = toObject(set.OpenAPITS); err != nil {
		return errResult(err), generatorConfigOutput{}, nil
	}

	if input.OutputDir != "" {
		written, err := set.WriteJSON(input.OutputDir)
		if err != nil {
			return errResult(err), generatorConfigOutput{}, nil
		}
		output.WrittenTo = written
	}
	return nil, output, nil
}

// toObject converts a configuration to the generic JSON object form.
func toObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
