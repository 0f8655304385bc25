// Package config loads oasprep.yaml, the file that configures a pipeline run.
//
// Every field has a default matching the Linode preparation scripts, so an
// empty or missing file runs the standard pipeline. Unknown keys are rejected.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/erraggy/oasprep/transform"
	"go.yaml.in/yaml/v4"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = "oasprep.yaml"

// Default source and output.
const (
	DefaultSource = "https://raw.githubusercontent.com/linode/linode-api-docs/refs/heads/development/openapi.json"
	DefaultOutput = "./openapi.json"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the content of oasprep.yaml.
type Config struct {
	Source     string         `yaml:"source" json:"source"`
	Output     string         `yaml:"output" json:"output"`
	Format     string         `yaml:"format" json:"format"`
	Fetch      Fetch          `yaml:"fetch" json:"fetch"`
	Transforms Transforms     `yaml:"transforms" json:"transforms"`
	Verify     bool           `yaml:"verify" json:"verify"`
	Generators *genconfig.Set `yaml:"generators,omitempty" json:"generators,omitempty"`
}

// Fetch configures document retrieval.
type Fetch struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	Retries      int           `yaml:"retries" json:"retries"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay"`
	UserAgent    string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	MaxBodyBytes int64         `yaml:"max_body_bytes,omitempty" json:"max_body_bytes,omitempty"`
}

// Transforms configures the pipeline steps.
type Transforms struct {
	StripPathSegment StripPathSegment `yaml:"strip_path_segment" json:"strip_path_segment"`
	ServerURL        string           `yaml:"server_url" json:"server_url"`
	Required         Required         `yaml:"required" json:"required"`
	Nullable         Nullable         `yaml:"nullable" json:"nullable"`
	RemoveSchemas    RemoveSchemas    `yaml:"remove_schemas" json:"remove_schemas"`
	// Disabled lists steps that are skipped.
	Disabled []string `yaml:"disabled" json:"disabled"`
}

// StripPathSegment configures the path segment removal step.
type StripPathSegment struct {
	Parameter string `yaml:"parameter" json:"parameter"`
}

// Required configures the required-by-default step.
type Required struct {
	OptionalExtensions []string `yaml:"optional_extensions" json:"optional_extensions"`
	SkipReadOnly       bool     `yaml:"skip_read_only" json:"skip_read_only"`
}

// Nullable configures the null normalization step.
type Nullable struct {
	Style         string   `yaml:"style" json:"style"`
	VendorMarkers []string `yaml:"vendor_markers" json:"vendor_markers"`
}

// RemoveSchemas configures the schema removal step.
type RemoveSchemas struct {
	Names    []string `yaml:"names" json:"names"`
	Dangling string   `yaml:"dangling" json:"dangling"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source: DefaultSource,
		Output: DefaultOutput,
		Format: FormatJSON,
		Fetch: Fetch{
			Timeout:    fetcher.DefaultTimeout,
			Retries:    fetcher.DefaultRetries,
			RetryDelay: fetcher.DefaultRetryDelay,
		},
		Transforms: Transforms{
			StripPathSegment: StripPathSegment{Parameter: transform.DefaultPathParameter},
			ServerURL:        transform.DefaultServerURL,
			Required: Required{
				OptionalExtensions: slices.Clone(transform.DefaultOptionalExtensions),
			},
			Nullable: Nullable{
				Style:         string(transform.NullStyleAuto),
				VendorMarkers: slices.Clone(transform.DefaultVendorMarkers),
			},
			RemoveSchemas: RemoveSchemas{
				Names:    []string{},
				Dangling: string(transform.DanglingError),
			},
			Disabled: []string{},
		},
	}
}

// Load reads the file at path over the defaults and validates the result.
// An empty file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &oaserrors.ConfigError{Option: "file", Value: path, Message: "cannot read configuration", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var cerr *oaserrors.ConfigError
		if errors.As(err, &cerr) && cerr.Option == "file" {
			cerr.Value = path
		}
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and returns the defaults otherwise.
// The boolean reports whether the file was found.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	return cfg, err == nil, err
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &oaserrors.ConfigError{Option: "file", Message: "invalid configuration", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every enumerated and required value.
func (c *Config) Validate() error {
	if c.Source == "" {
		return &oaserrors.ConfigError{Option: "source", Message: "must not be empty"}
	}
	if c.Output == "" {
		return &oaserrors.ConfigError{Option: "output", Message: "must not be empty"}
	}
	if c.Format != FormatJSON && c.Format != FormatYAML {
		return &oaserrors.ConfigError{Option: "format", Value: c.Format, Message: "must be json or yaml"}
	}
	if c.Fetch.Timeout <= 0 {
		return &oaserrors.ConfigError{Option: "fetch.timeout", Value: c.Fetch.Timeout.String(), Message: "must be positive"}
	}
	if c.Fetch.Retries < 0 {
		return &oaserrors.ConfigError{Option: "fetch.retries", Value: c.Fetch.Retries, Message: "must not be negative"}
	}
	if c.Fetch.RetryDelay < 0 {
		return &oaserrors.ConfigError{Option: "fetch.retry_delay", Value: c.Fetch.RetryDelay.String(), Message: "must not be negative"}
	}
	if c.Fetch.MaxBodyBytes < 0 {
		return &oaserrors.ConfigError{Option: "fetch.max_body_bytes", Value: c.Fetch.MaxBodyBytes, Message: "must not be negative"}
	}

	t := c.Transforms
	if t.StripPathSegment.Parameter == "" {
		return &oaserrors.ConfigError{Option: "transforms.strip_path_segment.parameter", Message: "must not be empty"}
	}
	if t.ServerURL == "" {
		return &oaserrors.ConfigError{Option: "transforms.server_url", Message: "must not be empty"}
	}
	if _, err := transform.ParseNullStyle(t.Nullable.Style); err != nil {
		return withOption(err, "transforms.nullable.style")
	}
	if _, err := transform.ParseDanglingPolicy(t.RemoveSchemas.Dangling); err != nil {
		return withOption(err, "transforms.remove_schemas.dangling")
	}
	for i, name := range t.Disabled {
		if _, err := transform.ParseStepName(name); err != nil {
			return withOption(err, fmt.Sprintf("transforms.disabled[%d]", i))
		}
	}
	return c.Generators.Validate()
}

// Steps returns the enabled steps in pipeline order.
func (c *Config) Steps() []transform.StepName {
	var steps []transform.StepName
	for _, s := range transform.AllSteps {
		if !slices.Contains(c.Transforms.Disabled, string(s)) {
			steps = append(steps, s)
		}
	}
	return steps
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("config: encoding: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: encoding: %w", err)
	}
	return buf.Bytes(), nil
}

func withOption(err error, option string) error {
	var cerr *oaserrors.ConfigError
	if errors.As(err, &cerr) {
		cerr.Option = option
	}
	return err
}
