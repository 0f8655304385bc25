package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erraggy/oasprep/config"
	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/internal/fileutil"
	"github.com/erraggy/oasprep/oaserrors"
	"github.com/erraggy/oasprep/transform"
	"github.com/erraggy/oasprep/verify"
)

// JSONIndent is the indentation of JSON output.
const JSONIndent = "  "

// Runner executes the preparation pipeline. A Runner is immutable after New
// and may be used for several runs.
type Runner struct {
	cfg *runConfig
}

// Result describes a completed run.
type Result struct {
	// Source is the location the document was loaded from
	Source string
	// OutputPath is where the document was written (empty for RunDocument
	// without an output path)
	OutputPath string
	// Written is true when OutputPath was replaced
	Written bool
	// Format is the output encoding, "json" or "yaml"
	Format string
	// Document is the transformed document
	Document *document.Document
	// Data is the serialized output
	Data []byte

	// Steps lists the steps that ran, in order
	Steps []transform.StepName
	// Fixes contains every change in the order it was made
	Fixes []transform.Fix
	// FixCount is len(Fixes)
	FixCount int
	// StepCounts is the number of fixes per step
	StepCounts map[transform.StepName]int
	// Warnings holds non-fatal findings
	Warnings []string
	// RenamedPaths lists rewritten paths keys
	RenamedPaths []transform.PathRename
	// RemovedSchemas lists deleted schema names
	RemovedSchemas []string

	// InputStats and OutputStats describe the document before and after the steps
	InputStats  document.Stats
	OutputStats document.Stats

	// Verification is set when verification ran
	Verification *verify.Summary

	// Generators holds the reconciled generator configurations, if configured
	Generators *genconfig.Set
	// GeneratorChanges lists the edits reconciliation made
	GeneratorChanges []genconfig.Change
	// GeneratorFiles lists the configuration files written
	GeneratorFiles []string

	// FetchDuration is the time spent loading the source
	FetchDuration time.Duration
	// TransformDuration is the time spent in the steps
	TransformDuration time.Duration
	// Duration is the total run time
	Duration time.Duration
}

// New creates a Runner from options.
func New(opts ...Option) (*Runner, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: invalid options: %w", err)
	}
	return &Runner{cfg: cfg}, nil
}

// FromConfig creates a Runner from a configuration file's content. opts are
// applied after the configuration and override it.
func FromConfig(c *config.Config, opts ...Option) (*Runner, error) {
	base, err := ConfigOptions(c)
	if err != nil {
		return nil, fmt.Errorf("pipeline: invalid configuration: %w", err)
	}
	return New(append(base, opts...)...)
}

// Steps returns the configured steps in pipeline order.
func (r *Runner) Steps() []transform.Step {
	c := r.cfg
	var steps []transform.Step
	for _, name := range transform.AllSteps {
		if !slices.Contains(c.enabledSteps, name) {
			continue
		}
		switch name {
		case transform.StepStripPathSegment:
			steps = append(steps, transform.StripPathSegment{Parameter: c.parameter})
		case transform.StepOverrideServerURL:
			steps = append(steps, transform.OverrideServerURL{URL: c.serverURL})
		case transform.StepRequireProperties:
			steps = append(steps, transform.RequireProperties{
				OptionalExtensions: c.optionalExtensions,
				NullableMarkers:    c.vendorMarkers,
				SkipReadOnly:       c.skipReadOnly,
			})
		case transform.StepNormalizeNullable:
			steps = append(steps, transform.NormalizeNullable{
				Style:         c.nullStyle,
				VendorMarkers: c.vendorMarkers,
			})
		case transform.StepRemoveSchemas:
			steps = append(steps, transform.RemoveSchemas{
				Names:    c.removeSchemas,
				Dangling: c.dangling,
			})
		}
	}
	return steps
}

// Run loads the configured source and runs the pipeline on it.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if r.cfg.source == "" {
		return nil, fmt.Errorf("pipeline: %w", &oaserrors.ConfigError{Option: "source", Message: "no source configured"})
	}

	r.cfg.logger.Info("loading document", "source", r.cfg.source)
	doc, err := r.cfg.fetcher.Load(ctx, r.cfg.source)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch: %w", err)
	}
	fetched := time.Since(start)

	// The fetched document belongs to this run; no clone is needed.
	result, err := r.run(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.Source = r.cfg.source
	result.FetchDuration = fetched
	result.Duration = time.Since(start)
	return result, nil
}

// RunDocument runs the pipeline on an already-loaded document. doc is cloned
// first unless WithMutableInput is set.
func (r *Runner) RunDocument(ctx context.Context, doc *document.Document) (*Result, error) {
	start := time.Now()
	if doc == nil {
		return nil, fmt.Errorf("pipeline: nil document")
	}
	if !r.cfg.mutableInput {
		doc = doc.Clone()
	}
	result, err := r.run(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.Source = doc.Source
	result.Duration = time.Since(start)
	return result, nil
}

// run applies the steps to doc, which the caller has handed over, then
// serializes, verifies and writes the output.
func (r *Runner) run(ctx context.Context, doc *document.Document) (*Result, error) {
	c := r.cfg
	if !c.dryRun && c.outputPath == "" {
		return nil, fmt.Errorf("pipeline: %w", &oaserrors.ConfigError{Option: "output", Message: "no output path configured"})
	}
	if c.outputPath != "" && !c.dryRun {
		if err := fileutil.RejectSymlink(c.outputPath); err != nil {
			return nil, fmt.Errorf("pipeline: %w", &oaserrors.WriteError{Path: c.outputPath, Op: "check", Cause: err})
		}
	}

	result := &Result{
		OutputPath: c.outputPath,
		Format:     c.format,
		Document:   doc,
		InputStats: doc.Stats(),
	}

	began := time.Now()
	tres := &transform.Result{}
	for _, step := range r.Steps() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline: step %s: %w", step.Name(), err)
		}
		before := len(tres.Fixes)
		if err := step.Apply(doc, tres); err != nil {
			return nil, fmt.Errorf("pipeline: step %s: %w", step.Name(), err)
		}
		result.Steps = append(result.Steps, step.Name())
		c.logger.Debug("step complete", "step", string(step.Name()), "fixes", len(tres.Fixes)-before)
	}
	result.TransformDuration = time.Since(began)

	result.Fixes = tres.Fixes
	result.FixCount = tres.FixCount()
	result.StepCounts = tres.CountByStep()
	result.Warnings = tres.Warnings
	result.RenamedPaths = tres.RenamedPaths
	result.RemovedSchemas = tres.RemovedSchemas
	result.OutputStats = doc.Stats()
	for _, w := range tres.Warnings {
		c.logger.Warn(w)
	}

	data, err := r.serialize(doc)
	if err != nil {
		return nil, err
	}
	result.Data = data

	if c.verify {
		summary, err := verify.Verify(data)
		if err != nil {
			return nil, fmt.Errorf("pipeline: step %s: %w", verify.StepName, err)
		}
		result.Verification = summary
		c.logger.Info("output verified", "summary", summary.String())
	}

	// The document is written last so that no earlier failure leaves a new
	// output behind.
	if c.generators != nil {
		set := c.generators.Clone()
		result.GeneratorChanges = set.Reconcile(tres.Renames(), tres.RemovedSchemas)
		result.Generators = set
		for _, ch := range result.GeneratorChanges {
			c.logger.Info("generator config updated", "change", ch.String())
		}
		if set.OutputDir != "" && !c.dryRun {
			files, err := set.WriteJSON(set.OutputDir)
			if err != nil {
				return nil, fmt.Errorf("pipeline: generator configs: %w", err)
			}
			result.GeneratorFiles = files
		}
	}

	if !c.dryRun {
		if err := fileutil.WriteFileAtomic(c.outputPath, data, fileutil.OwnerReadWrite); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		result.Written = true
		c.logger.Info("document written", "path", c.outputPath, "bytes", len(data), "fixes", result.FixCount)
	}
	return result, nil
}

func (r *Runner) serialize(doc *document.Document) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if r.cfg.format == config.FormatYAML {
		data, err = doc.MarshalOrderedYAML()
	} else {
		data, err = doc.MarshalOrderedJSONIndent("", JSONIndent)
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: serialize: %w", err)
	}
	return data, nil
}
