package pipeline

import (
	"fmt"
	"slices"

	"github.com/erraggy/oasprep/config"
	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/erraggy/oasprep/oaslog"
	"github.com/erraggy/oasprep/transform"
)

// Option configures a Runner.
type Option func(*runConfig) error

// runConfig holds the configuration of a Runner.
type runConfig struct {
	source     string
	outputPath string
	format     string
	fetcher    *fetcher.Fetcher
	logger     oaslog.Logger

	parameter          string
	serverURL          string
	optionalExtensions []string
	skipReadOnly       bool
	nullStyle          transform.NullStyle
	vendorMarkers      []string
	removeSchemas      []string
	dangling           transform.DanglingPolicy
	enabledSteps       []transform.StepName

	verify       bool
	dryRun       bool
	mutableInput bool
	generators   *genconfig.Set
}

func applyOptions(opts ...Option) (*runConfig, error) {
	cfg := &runConfig{
		format:             config.FormatJSON,
		parameter:          transform.DefaultPathParameter,
		serverURL:          transform.DefaultServerURL,
		optionalExtensions: slices.Clone(transform.DefaultOptionalExtensions),
		nullStyle:          transform.NullStyleAuto,
		vendorMarkers:      slices.Clone(transform.DefaultVendorMarkers),
		dangling:           transform.DanglingError,
		enabledSteps:       slices.Clone(transform.AllSteps),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.fetcher == nil {
		cfg.fetcher = fetcher.New()
	}
	if cfg.fetcher.Logger == nil {
		cfg.fetcher.Logger = cfg.logger
	}
	cfg.logger = oaslog.OrNop(cfg.logger)
	return cfg, nil
}

// WithSource sets the URL, file path, or "-" (stdin) that Run loads.
func WithSource(source string) Option {
	return func(cfg *runConfig) error {
		if source == "" {
			return &oaserrors.ConfigError{Option: "source", Message: "must not be empty"}
		}
		cfg.source = source
		return nil
	}
}

// WithOutputPath sets the file the transformed document is written to.
func WithOutputPath(path string) Option {
	return func(cfg *runConfig) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "output", Message: "must not be empty"}
		}
		cfg.outputPath = path
		return nil
	}
}

// WithFormat selects the output encoding: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(cfg *runConfig) error {
		if format != config.FormatJSON && format != config.FormatYAML {
			return &oaserrors.ConfigError{Option: "format", Value: format, Message: "must be json or yaml"}
		}
		cfg.format = format
		return nil
	}
}

// WithFetcher sets the fetcher used by Run.
func WithFetcher(f *fetcher.Fetcher) Option {
	return func(cfg *runConfig) error {
		if f == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		cfg.fetcher = f
		return nil
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l oaslog.Logger) Option {
	return func(cfg *runConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithPathParameter sets the templated path parameter to strip.
func WithPathParameter(name string) Option {
	return func(cfg *runConfig) error {
		if name == "" {
			return &oaserrors.ConfigError{Option: "parameter", Message: "must not be empty"}
		}
		cfg.parameter = name
		return nil
	}
}

// WithServerURL sets the URL written to servers[0].url.
func WithServerURL(url string) Option {
	return func(cfg *runConfig) error {
		if url == "" {
			return &oaserrors.ConfigError{Option: "server-url", Message: "must not be empty"}
		}
		cfg.serverURL = url
		return nil
	}
}

// WithOptionalExtensions sets the extensions that keep a property optional.
func WithOptionalExtensions(keys ...string) Option {
	return func(cfg *runConfig) error {
		cfg.optionalExtensions = keys
		return nil
	}
}

// WithSkipReadOnly exempts readOnly properties from required-by-default.
func WithSkipReadOnly(skip bool) Option {
	return func(cfg *runConfig) error {
		cfg.skipReadOnly = skip
		return nil
	}
}

// WithNullStyle selects the canonical null form.
func WithNullStyle(style transform.NullStyle) Option {
	return func(cfg *runConfig) error {
		parsed, err := transform.ParseNullStyle(string(style))
		if err != nil {
			return err
		}
		cfg.nullStyle = parsed
		return nil
	}
}

// WithVendorMarkers sets the non-standard null markers.
func WithVendorMarkers(markers ...string) Option {
	return func(cfg *runConfig) error {
		cfg.vendorMarkers = markers
		return nil
	}
}

// WithRemoveSchemas lists schemas to delete.
func WithRemoveSchemas(names ...string) Option {
	return func(cfg *runConfig) error {
		cfg.removeSchemas = names
		return nil
	}
}

// WithDanglingPolicy selects the handling of references to removed schemas.
func WithDanglingPolicy(policy transform.DanglingPolicy) Option {
	return func(cfg *runConfig) error {
		parsed, err := transform.ParseDanglingPolicy(string(policy))
		if err != nil {
			return err
		}
		cfg.dangling = parsed
		return nil
	}
}

// WithEnabledSteps restricts the run to the given steps. They still run in
// pipeline order.
func WithEnabledSteps(steps ...transform.StepName) Option {
	return func(cfg *runConfig) error {
		for _, s := range steps {
			if _, err := transform.ParseStepName(string(s)); err != nil {
				return err
			}
		}
		cfg.enabledSteps = steps
		return nil
	}
}

// WithDisabledSteps removes steps from the run.
func WithDisabledSteps(steps ...transform.StepName) Option {
	return func(cfg *runConfig) error {
		for _, s := range steps {
			if _, err := transform.ParseStepName(string(s)); err != nil {
				return err
			}
		}
		cfg.enabledSteps = slices.DeleteFunc(slices.Clone(cfg.enabledSteps), func(s transform.StepName) bool {
			return slices.Contains(steps, s)
		})
		return nil
	}
}

// WithVerify enables loading the output as an OpenAPI v3 model before it is
// written.
func WithVerify(enabled bool) Option {
	return func(cfg *runConfig) error {
		cfg.verify = enabled
		return nil
	}
}

// WithDryRun skips every file write.
func WithDryRun(enabled bool) Option {
	return func(cfg *runConfig) error {
		cfg.dryRun = enabled
		return nil
	}
}

// WithMutableInput lets RunDocument transform the given document in place
// instead of a clone. The caller must not use the document afterwards.
func WithMutableInput(enabled bool) Option {
	return func(cfg *runConfig) error {
		cfg.mutableInput = enabled
		return nil
	}
}

// WithGenerators sets the generator configurations reconciled after the
// transforms. When the set has an OutputDir they are written there.
func WithGenerators(set *genconfig.Set) Option {
	return func(cfg *runConfig) error {
		if err := set.Validate(); err != nil {
			return err
		}
		cfg.generators = set
		return nil
	}
}

// ConfigOptions returns the options equivalent to a configuration file.
// Options applied after these override them.
func ConfigOptions(c *config.Config) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f := fetcher.New()
	f.Timeout = c.Fetch.Timeout
	f.Retries = c.Fetch.Retries
	f.RetryDelay = c.Fetch.RetryDelay
	f.UserAgent = c.Fetch.UserAgent
	if c.Fetch.MaxBodyBytes > 0 {
		f.MaxBodyBytes = c.Fetch.MaxBodyBytes
	}

	t := c.Transforms
	opts := []Option{
		WithSource(c.Source),
		WithOutputPath(c.Output),
		WithFormat(c.Format),
		WithFetcher(f),
		WithPathParameter(t.StripPathSegment.Parameter),
		WithServerURL(t.ServerURL),
		WithOptionalExtensions(t.Required.OptionalExtensions...),
		WithSkipReadOnly(t.Required.SkipReadOnly),
		WithNullStyle(transform.NullStyle(t.Nullable.Style)),
		WithVendorMarkers(t.Nullable.VendorMarkers...),
		WithRemoveSchemas(t.RemoveSchemas.Names...),
		WithDanglingPolicy(transform.DanglingPolicy(t.RemoveSchemas.Dangling)),
		WithEnabledSteps(c.Steps()...),
		WithVerify(c.Verify),
	}
	if c.Generators != nil {
		opts = append(opts, WithGenerators(c.Generators))
	}
	return opts, nil
}
