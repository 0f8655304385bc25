// Package genconfig holds declarative configurations for the code generators
// that consume the prepared document: Kubb and @hey-api/openapi-ts.
//
// The structs mirror the generators' own configuration files. They are data:
// oasprep does not run the generators. It keeps their configuration in step
// with the transforms (see [Set.Reconcile]) and writes it as JSON next to the
// document (see [Set.WriteJSON]).
package genconfig

import (
	"fmt"
	"slices"

	"github.com/erraggy/oasprep/oaserrors"
)

// BarrelType controls how a generator writes index re-export files.
type BarrelType string

const (
	// BarrelAll re-exports everything
	BarrelAll BarrelType = "all"
	// BarrelNamed re-exports named symbols only
	BarrelNamed BarrelType = "named"
	// BarrelPropagate forwards barrel files from nested directories
	BarrelPropagate BarrelType = "propagate"
)

// ExcludeType selects what an Exclude pattern is matched against.
type ExcludeType string

const (
	// ExcludeOperationID matches operationId values
	ExcludeOperationID ExcludeType = "operationId"
	// ExcludePath matches paths keys
	ExcludePath ExcludeType = "path"
	// ExcludeTag matches operation tags
	ExcludeTag ExcludeType = "tag"
	// ExcludeSchema matches component schema names
	ExcludeSchema ExcludeType = "schema"
	// ExcludeMethod matches HTTP methods
	ExcludeMethod ExcludeType = "method"
	// ExcludeContentType matches media types
	ExcludeContentType ExcludeType = "contentType"
)

var validExcludeTypes = []ExcludeType{
	ExcludeOperationID, ExcludePath, ExcludeTag, ExcludeSchema, ExcludeMethod, ExcludeContentType,
}

// Set groups the generator configurations managed by oasprep.
type Set struct {
	// OutputDir is where WriteJSON writes the configuration files.
	// Empty disables writing from the pipeline.
	OutputDir string     `yaml:"output_dir" json:"-"`
	Kubb      *Kubb      `yaml:"kubb,omitempty" json:"kubb,omitempty"`
	OpenAPITS *OpenAPITS `yaml:"openapi_ts,omitempty" json:"openapi_ts,omitempty"`
}

// Kubb mirrors kubb.config.ts.
type Kubb struct {
	Root    string      `yaml:"root" json:"root"`
	Input   KubbInput   `yaml:"input" json:"input"`
	Output  KubbOutput  `yaml:"output" json:"output"`
	Plugins KubbPlugins `yaml:"plugins" json:"plugins"`
}

// KubbInput is the document Kubb reads.
type KubbInput struct {
	Path string `yaml:"path" json:"path"`
}

// KubbOutput is the root output directory.
type KubbOutput struct {
	Path       string     `yaml:"path" json:"path"`
	Clean      bool       `yaml:"clean" json:"clean"`
	BarrelType BarrelType `yaml:"barrelType,omitempty" json:"barrelType,omitempty"`
}

// PluginOutput is the output location of one plugin.
type PluginOutput struct {
	Path       string     `yaml:"path" json:"path"`
	BarrelType BarrelType `yaml:"barrelType,omitempty" json:"barrelType,omitempty"`
}

// KubbPlugins holds the enabled plugins. A nil plugin is disabled.
type KubbPlugins struct {
	Oas    *OasPlugin    `yaml:"oas,omitempty" json:"oas,omitempty"`
	Ts     *TsPlugin     `yaml:"ts,omitempty" json:"ts,omitempty"`
	Zod    *ZodPlugin    `yaml:"zod,omitempty" json:"zod,omitempty"`
	Client *ClientPlugin `yaml:"client,omitempty" json:"client,omitempty"`
	Faker  *FakerPlugin  `yaml:"faker,omitempty" json:"faker,omitempty"`
}

// OasPlugin configures @kubb/plugin-oas.
type OasPlugin struct {
	Output        PluginOutput `yaml:"output" json:"output"`
	Discriminator string       `yaml:"discriminator,omitempty" json:"discriminator,omitempty"`
}

// TsPlugin configures @kubb/plugin-ts.
type TsPlugin struct {
	Output     PluginOutput `yaml:"output" json:"output"`
	EnumType   string       `yaml:"enumType,omitempty" json:"enumType,omitempty"`
	ArrayType  string       `yaml:"arrayType,omitempty" json:"arrayType,omitempty"`
	SyntaxType string       `yaml:"syntaxType,omitempty" json:"syntaxType,omitempty"`
}

// ZodPlugin configures @kubb/plugin-zod.
type ZodPlugin struct {
	Output  PluginOutput `yaml:"output" json:"output"`
	Version string       `yaml:"version,omitempty" json:"version,omitempty"`
}

// ClientPlugin configures @kubb/plugin-client.
type ClientPlugin struct {
	Client string       `yaml:"client,omitempty" json:"client,omitempty"`
	Bundle bool         `yaml:"bundle,omitempty" json:"bundle,omitempty"`
	Output PluginOutput `yaml:"output" json:"output"`
}

// FakerPlugin configures @kubb/plugin-faker.
type FakerPlugin struct {
	Output  PluginOutput `yaml:"output" json:"output"`
	Exclude []Exclude    `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Exclude skips matching operations or schemas during generation.
type Exclude struct {
	Type    ExcludeType `yaml:"type" json:"type"`
	Pattern string      `yaml:"pattern" json:"pattern"`
}

// OpenAPITS mirrors openapi-ts.config.ts.
type OpenAPITS struct {
	Input   string           `yaml:"input" json:"input"`
	Output  string           `yaml:"output" json:"output"`
	Parser  *OpenAPITSParser `yaml:"parser,omitempty" json:"parser,omitempty"`
	Plugins OpenAPITSPlugins `yaml:"plugins" json:"plugins"`
}

// OpenAPITSParser configures input parsing.
type OpenAPITSParser struct {
	Transforms ParserTransforms `yaml:"transforms" json:"transforms"`
}

// ParserTransforms are openapi-ts's own input transforms.
type ParserTransforms struct {
	PropertiesRequiredByDefault bool `yaml:"propertiesRequiredByDefault" json:"propertiesRequiredByDefault"`
}

// OpenAPITSPlugins holds the enabled plugins. A nil plugin is disabled.
// It is written as the generator's plugin array (see MarshalJSON).
type OpenAPITSPlugins struct {
	ClientFetch *ClientFetchPlugin `yaml:"client_fetch,omitempty" json:"-"`
	SDK         *SDKPlugin         `yaml:"sdk,omitempty" json:"-"`
	Zod         *ZodNamingPlugin   `yaml:"zod,omitempty" json:"-"`
}

// ClientFetchPlugin configures @hey-api/client-fetch.
type ClientFetchPlugin struct {
	ThrowOnError    bool  `yaml:"throwOnError" json:"throwOnError"`
	ExportFromIndex *bool `yaml:"exportFromIndex,omitempty" json:"exportFromIndex,omitempty"`
}

// SDKPlugin configures @hey-api/sdk.
type SDKPlugin struct {
	ResponseStyle   string `yaml:"responseStyle,omitempty" json:"responseStyle,omitempty"`
	ParamsStructure string `yaml:"paramsStructure,omitempty" json:"paramsStructure,omitempty"`
	ExportFromIndex *bool  `yaml:"exportFromIndex,omitempty" json:"exportFromIndex,omitempty"`
}

// ZodNamingPlugin configures the zod plugin's symbol names.
type ZodNamingPlugin struct {
	Definitions     NameTemplate `yaml:"definitions" json:"-"`
	Requests        NameTemplate `yaml:"requests" json:"-"`
	Responses       NameTemplate `yaml:"responses" json:"-"`
	ExportFromIndex *bool        `yaml:"exportFromIndex,omitempty" json:"exportFromIndex,omitempty"`
}

// Default input and output locations.
const (
	DefaultInput      = "./openapi.json"
	DefaultKubbOutput = "./src"
	DefaultTSOutput   = "src"
)

// Defaults returns the generator configurations oasprep ships with, reading
// from input (DefaultInput when empty).
func Defaults(input string) *Set {
	if input == "" {
		input = DefaultInput
	}
	no := false
	return &Set{
		Kubb: &Kubb{
			Root:   ".",
			Input:  KubbInput{Path: input},
			Output: KubbOutput{Path: DefaultKubbOutput, Clean: true, BarrelType: BarrelNamed},
			Plugins: KubbPlugins{
				Oas: &OasPlugin{
					Output:        PluginOutput{Path: "./specs"},
					Discriminator: "inherit",
				},
				Ts: &TsPlugin{
					Output:     PluginOutput{Path: "./types.ts", BarrelType: BarrelNamed},
					EnumType:   "inlineLiteral",
					ArrayType:  "generic",
					SyntaxType: "interface",
				},
				Zod: &ZodPlugin{
					Output:  PluginOutput{Path: "schemas.ts", BarrelType: BarrelNamed},
					Version: "4",
				},
				Client: &ClientPlugin{
					Client: "fetch",
					Bundle: true,
					Output: PluginOutput{Path: "./api.ts", BarrelType: BarrelNamed},
				},
				Faker: &FakerPlugin{
					Output: PluginOutput{Path: "./mocks", BarrelType: BarrelAll},
					Exclude: []Exclude{
						{Type: ExcludeOperationID, Pattern: "get-maintenance-200"},
						{Type: ExcludeOperationID, Pattern: "get-maintenance"},
						{Type: ExcludePath, Pattern: "/{apiVersion}/account/maintenance"},
					},
				},
			},
		},
		OpenAPITS: &OpenAPITS{
			Input:  input,
			Output: DefaultTSOutput,
			Parser: &OpenAPITSParser{Transforms: ParserTransforms{PropertiesRequiredByDefault: true}},
			Plugins: OpenAPITSPlugins{
				ClientFetch: &ClientFetchPlugin{ThrowOnError: true, ExportFromIndex: &no},
				SDK:         &SDKPlugin{ResponseStyle: "data", ExportFromIndex: &no},
				Zod: &ZodNamingPlugin{
					Definitions:     DefaultDefinitionsTemplate,
					Requests:        DefaultRequestsTemplate,
					Responses:       DefaultResponsesTemplate,
					ExportFromIndex: &no,
				},
			},
		},
	}
}

// Validate checks exclude types and name templates.
func (s *Set) Validate() error {
	if s == nil {
		return nil
	}
	if s.Kubb != nil && s.Kubb.Plugins.Faker != nil {
		for i, ex := range s.Kubb.Plugins.Faker.Exclude {
			if !slices.Contains(validExcludeTypes, ex.Type) {
				return &oaserrors.ConfigError{
					Option:  fmt.Sprintf("generators.kubb.plugins.faker.exclude[%d].type", i),
					Value:   string(ex.Type),
					Message: fmt.Sprintf("must be one of %v", validExcludeTypes),
				}
			}
			if ex.Pattern == "" {
				return &oaserrors.ConfigError{
					Option:  fmt.Sprintf("generators.kubb.plugins.faker.exclude[%d].pattern", i),
					Message: "must not be empty",
				}
			}
		}
	}
	if s.OpenAPITS != nil && s.OpenAPITS.Plugins.Zod != nil {
		z := s.OpenAPITS.Plugins.Zod
		for option, tmpl := range map[string]NameTemplate{
			"generators.openapi_ts.plugins.zod.definitions": z.Definitions,
			"generators.openapi_ts.plugins.zod.requests":    z.Requests,
			"generators.openapi_ts.plugins.zod.responses":   z.Responses,
		} {
			if _, err := tmpl.parse(); err != nil {
				return &oaserrors.ConfigError{Option: option, Value: string(tmpl), Message: "invalid name template", Cause: err}
			}
		}
	}
	return nil
}
