package mcpserver

import (
	"context"
	"fmt"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/pipeline"
	"github.com/erraggy/oasprep/transform"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type transformInput struct {
	Spec            specInput `json:"spec"                       jsonschema:"The OAS document to prepare"`
	ServerURL       string    `json:"server_url,omitempty"       jsonschema:"URL written to servers[0].url (default from OASPREP_SERVER_URL)"`
	Parameter       string    `json:"parameter,omitempty"        jsonschema:"Path parameter to strip from every path (default apiVersion)"`
	RemoveSchemas   []string  `json:"remove_schemas,omitempty"   jsonschema:"Component schema names to delete"`
	Dangling        string    `json:"dangling,omitempty"         jsonschema:"References to removed schemas: error (default) or prune"`
	NullStyle       string    `json:"null_style,omitempty"       jsonschema:"Null form: auto\\, type-array\\, nullable\\, or x-nullable"`
	DisabledSteps   []string  `json:"disabled_steps,omitempty"   jsonschema:"Steps to skip: strip-path-segment\\, override-server-url\\, require-properties\\, normalize-nullable\\, remove-schemas"`
	SkipReadOnly    bool      `json:"skip_read_only,omitempty"   jsonschema:"Keep readOnly properties optional"`
	Verify          bool      `json:"verify,omitempty"           jsonschema:"Check that the result still builds as an OpenAPI v3 model"`
	IncludeDocument bool      `json:"include_document,omitempty" jsonschema:"Include the full transformed document in output"`
	Output          string    `json:"output,omitempty"           jsonschema:"File path to write the transformed document to"`
	Format          string    `json:"format,omitempty"           jsonschema:"Output format: json (default) or yaml"`
	Offset          int       `json:"offset,omitempty"           jsonschema:"Skip the first N fixes (for pagination)"`
	Limit           int       `json:"limit,omitempty"            jsonschema:"Maximum number of fixes to return (default 100)"`
}

type fixApplied struct {
	Type        string `json:"type"`
	Step        string `json:"step"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type transformStats struct {
	Input  document.Stats `json:"input"`
	Output document.Stats `json:"output"`
}

type transformOutput struct {
	FixCount       int                    `json:"fix_count"`
	Returned       int                    `json:"returned"`
	StepCounts     map[string]int         `json:"step_counts,omitempty"`
	Fixes          []fixApplied           `json:"fixes,omitempty"`
	RenamedPaths   []transform.PathRename `json:"renamed_paths,omitempty"`
	RemovedSchemas []string               `json:"removed_schemas,omitempty"`
	Warnings       []string               `json:"warnings,omitempty"`
	Stats          transformStats         `json:"stats"`
	Verification   string                 `json:"verification,omitempty"`
	WrittenTo      string                 `json:"written_to,omitempty"`
	Document       string                 `json:"document,omitempty"`
}

func handleTransform(ctx context.Context, _ *mcp.CallToolRequest, input transformInput) (*mcp.CallToolResult, transformOutput, error) {
	result, err := runTransform(ctx, input.Spec, input, nil)
	if err != nil {
		return errResult(err), transformOutput{}, nil
	}

	output := transformOutput{
		FixCount:       result.FixCount,
		RenamedPaths:   result.RenamedPaths,
		RemovedSchemas: result.RemovedSchemas,
		Warnings:       result.Warnings,
		Stats:          transformStats{Input: result.InputStats, Output: result.OutputStats},
	}
	if len(result.StepCounts) > 0 {
		output.StepCounts = make(map[string]int, len(result.StepCounts))
		for step, n := range result.StepCounts {
			output.StepCounts[string(step)] = n
		}
	}

	output.Fixes = makeSlice[fixApplied](len(result.Fixes))
	for _, f := range result.Fixes {
		output.Fixes = append(output.Fixes, fixApplied{
			Type:        string(f.Type),
			Step:        string(f.Step),
			Path:        f.Path,
			Description: f.Description,
		})
	}
	output.Fixes = paginate(output.Fixes, input.Offset, input.Limit)
	output.Returned = len(output.Fixes)

	if result.Verification != nil {
		output.Verification = result.Verification.String()
	}
	if result.Written {
		output.WrittenTo = result.OutputPath
	}
	if input.IncludeDocument {
		output.Document = string(result.Data)
	}
	return nil, output, nil
}

// runTransform resolves spec and runs the pipeline on it with the options
// from input, falling back to the server defaults. extra options are
// appended last.
func runTransform(ctx context.Context, spec specInput, input transformInput, extra []pipeline.Option) (*pipeline.Result, error) {
	doc, err := spec.resolve(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := transformOptions(input)
	if err != nil {
		return nil, err
	}
	r, err := pipeline.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	// The resolved document may be cached, so the runner works on a clone.
	return r.RunDocument(ctx, doc)
}

// transformOptions translates the MCP input into pipeline options.
func transformOptions(input transformInput) ([]pipeline.Option, error) {
	serverURL := input.ServerURL
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}
	parameter := input.Parameter
	if parameter == "" {
		parameter = cfg.Parameter
	}
	nullStyle := cfg.NullStyle
	if input.NullStyle != "" {
		nullStyle = transform.NullStyle(input.NullStyle)
	}
	dangling := cfg.Dangling
	if input.Dangling != "" {
		dangling = transform.DanglingPolicy(input.Dangling)
	}

	opts := []pipeline.Option{
		pipeline.WithServerURL(serverURL),
		pipeline.WithPathParameter(parameter),
		pipeline.WithNullStyle(nullStyle),
		pipeline.WithDanglingPolicy(dangling),
		pipeline.WithRemoveSchemas(input.RemoveSchemas...),
		pipeline.WithSkipReadOnly(input.SkipReadOnly),
		pipeline.WithVerify(input.Verify),
	}

	if len(input.DisabledSteps) > 0 {
		steps := make([]transform.StepName, 0, len(input.DisabledSteps))
		for _, s := range input.DisabledSteps {
			name, err := transform.ParseStepName(s)
			if err != nil {
				return nil, err
			}
			steps = append(steps, name)
		}
		opts = append(opts, pipeline.WithDisabledSteps(steps...))
	}

	if input.Format != "" {
		opts = append(opts, pipeline.WithFormat(input.Format))
	}
	if input.Output != "" {
		opts = append(opts, pipeline.WithOutputPath(input.Output))
	} else {
		opts = append(opts, pipeline.WithDryRun(true))
	}
	return opts, nil
}

// describeSource names the spec input for log and error messages.
func describeSource(s specInput) string {
	switch {
	case s.URL != "":
		return s.URL
	case s.File != "":
		return s.File
	default:
		return fmt.Sprintf("<content %d bytes>", len(s.Content))
	}
}
