package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/erraggy/oasprep/genconfig"
	"github.com/erraggy/oasprep/internal/cliutil"
	"github.com/erraggy/oasprep/oaslog"
	"github.com/erraggy/oasprep/pipeline"
	"github.com/erraggy/oasprep/transform"
)

// TransformFlags contains flags for the transform command
type TransformFlags struct {
	Config        string
	Source        string
	Output        string
	Format        string
	ServerURL     string
	Param         string
	RemoveSchemas stringList
	Dangling      string
	NullStyle     string
	Disable       stringList
	SkipReadOnly  bool
	Verify        bool
	DryRun        bool
	GeneratorsDir string
	Quiet         bool
	Verbose       bool
}

// SetupTransformFlags creates and configures a FlagSet for the transform command.
// Returns the FlagSet and a TransformFlags struct with bound flag variables.
func SetupTransformFlags() (*flag.FlagSet, *TransformFlags) {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	flags := &TransformFlags{}

	fs.StringVar(&flags.Config, "c", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Config, "config", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Source, "s", "", "source URL, file, or '-' for stdin")
	fs.StringVar(&flags.Source, "source", "", "source URL, file, or '-' for stdin")
	fs.StringVar(&flags.Output, "o", "", "output file path, or '-' for stdout (default: ./openapi.json)")
	fs.StringVar(&flags.Output, "output", "", "output file path, or '-' for stdout (default: ./openapi.json)")
	fs.StringVar(&flags.Format, "format", "", "output format: json or yaml (default: json)")
	fs.StringVar(&flags.ServerURL, "server-url", "", "URL written to servers[0].url")
	fs.StringVar(&flags.Param, "param", "", "path parameter stripped from every path (default: apiVersion)")
	fs.Var(&flags.RemoveSchemas, "remove-schema", "component schema to delete (repeatable)")
	fs.StringVar(&flags.Dangling, "dangling", "", "references to removed schemas: error or prune")
	fs.StringVar(&flags.NullStyle, "null-style", "", "null form: auto, type-array, nullable, or x-nullable")
	fs.Var(&flags.Disable, "disable", "step to skip (repeatable)")
	fs.BoolVar(&flags.SkipReadOnly, "skip-read-only", false, "keep readOnly properties optional")
	fs.BoolVar(&flags.Verify, "verify", false, "check that the output still loads as an OpenAPI v3 model")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "run every step but do not write any file")
	fs.StringVar(&flags.GeneratorsDir, "generators-dir", "", "write reconciled kubb and openapi-ts configs to this directory")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose mode: list every fix and debug logs")
	fs.BoolVar(&flags.Verbose, "verbose", false, "verbose mode: list every fix and debug logs")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: oasprep transform [flags] [url|file|-]\n\n")
		cliutil.Writef(fs.Output(), "Fetch an OpenAPI document and prepare it for the openapi-ts and Kubb generators.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nSteps (in order):\n")
		cliutil.Writef(fs.Output(), "  strip-path-segment    Remove /{apiVersion} from paths and drop the parameter\n")
		cliutil.Writef(fs.Output(), "  override-server-url   Set servers[0].url\n")
		cliutil.Writef(fs.Output(), "  require-properties    List every non-nullable property as required\n")
		cliutil.Writef(fs.Output(), "  normalize-nullable    Rewrite null markers to one form\n")
		cliutil.Writef(fs.Output(), "  remove-schemas        Delete schemas the generators cannot handle\n")
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  oasprep transform\n")
		cliutil.Writef(fs.Output(), "  oasprep transform -o openapi.json https://example.com/openapi.json\n")
		cliutil.Writef(fs.Output(), "  oasprep transform --server-url http://localhost:4010/v4/ --verify\n")
		cliutil.Writef(fs.Output(), "  oasprep transform --remove-schema Broken --dangling prune -o -\n")
		cliutil.Writef(fs.Output(), "  oasprep transform --disable require-properties spec.yaml\n")
		cliutil.Writef(fs.Output(), "\nNotes:\n")
		cliutil.Writef(fs.Output(), "  - Flags override values from the configuration file\n")
		cliutil.Writef(fs.Output(), "  - The output is replaced atomically; on failure it is left untouched\n")
		cliutil.Writef(fs.Output(), "  - Output file is written with restrictive permissions (0600)\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    Document prepared successfully\n")
		cliutil.Writef(fs.Output(), "  1    Fetch, parse, a step, verification, or the write failed\n")
	}

	return fs, flags
}

// HandleTransform executes the transform command
func HandleTransform(args []string) error {
	fs, flags := SetupTransformFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("transform command accepts at most one source")
	}
	if fs.NArg() == 1 {
		if flags.Source != "" {
			return fmt.Errorf("source given both as argument and with -s")
		}
		flags.Source = fs.Arg(0)
	}
	if flags.Quiet && flags.Verbose {
		return fmt.Errorf("-q and -v are mutually exclusive")
	}

	cfg, cfgPath, err := LoadConfig(flags.Config)
	if err != nil {
		return err
	}

	logger := NewLogger(os.Stderr, flags.Quiet, flags.Verbose)
	if cfgPath != "" {
		logger.Debug("loaded configuration", "path", cfgPath)
	}

	opts, toStdout, err := transformOptions(fs, flags, cfg.Generators, cfg.Output)
	if err != nil {
		return err
	}
	opts = append(opts, pipeline.WithLogger(oaslog.NewSlogAdapter(logger)))

	r, err := pipeline.FromConfig(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := r.Run(ctx)
	if err != nil {
		return err
	}

	if toStdout {
		if _, err := os.Stdout.Write(result.Data); err != nil {
			return fmt.Errorf("writing document to stdout: %w", err)
		}
	}
	if !flags.Quiet {
		printTransformReport(result, flags.Verbose)
	}
	return nil
}

// transformOptions turns the flags that were set into pipeline options.
// The returned bool is true when the document goes to stdout.
func transformOptions(fs *flag.FlagSet, flags *TransformFlags, generators *genconfig.Set, configOutput string) ([]pipeline.Option, bool, error) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	isSet := func(names ...string) bool {
		return slices.ContainsFunc(names, func(n string) bool { return set[n] })
	}

	var opts []pipeline.Option
	if flags.Source != "" {
		opts = append(opts, pipeline.WithSource(flags.Source))
	}

	toStdout := flags.Output == StdoutPath
	output := configOutput
	switch {
	case toStdout:
		opts = append(opts, pipeline.WithDryRun(true))
	case flags.Output != "":
		output = flags.Output
		opts = append(opts, pipeline.WithOutputPath(flags.Output))
	}
	if flags.DryRun {
		opts = append(opts, pipeline.WithDryRun(true))
	}

	if isSet("format") {
		if err := ValidateOutputFormat(flags.Format); err != nil {
			return nil, false, err
		}
		opts = append(opts, pipeline.WithFormat(flags.Format))
	}
	if isSet("server-url") {
		opts = append(opts, pipeline.WithServerURL(flags.ServerURL))
	}
	if isSet("param") {
		opts = append(opts, pipeline.WithPathParameter(flags.Param))
	}
	if len(flags.RemoveSchemas) > 0 {
		opts = append(opts, pipeline.WithRemoveSchemas(flags.RemoveSchemas...))
	}
	if isSet("dangling") {
		opts = append(opts, pipeline.WithDanglingPolicy(transform.DanglingPolicy(flags.Dangling)))
	}
	if isSet("null-style") {
		opts = append(opts, pipeline.WithNullStyle(transform.NullStyle(flags.NullStyle)))
	}
	if len(flags.Disable) > 0 {
		steps := make([]transform.StepName, 0, len(flags.Disable))
		for _, s := range flags.Disable {
			name, err := transform.ParseStepName(s)
			if err != nil {
				return nil, false, err
			}
			steps = append(steps, name)
		}
		opts = append(opts, pipeline.WithDisabledSteps(steps...))
	}
	if isSet("skip-read-only") {
		opts = append(opts, pipeline.WithSkipReadOnly(flags.SkipReadOnly))
	}
	if isSet("verify") {
		opts = append(opts, pipeline.WithVerify(flags.Verify))
	}

	if flags.GeneratorsDir != "" {
		gens := generators.Clone()
		if gens == nil {
			input := output
			if toStdout || input == "" {
				input = genconfig.DefaultInput
			}
			gens = genconfig.Defaults(input)
		}
		gens.OutputDir = flags.GeneratorsDir
		opts = append(opts, pipeline.WithGenerators(gens))
	}
	return opts, toStdout, nil
}

func printTransformReport(result *pipeline.Result, verbose bool) {
	w := os.Stderr
	outputHeader(w, "OpenAPI Preparation Pipeline", result.Source)
	cliutil.Writef(w, "Paths: %d -> %d\n", result.InputStats.PathCount, result.OutputStats.PathCount)
	cliutil.Writef(w, "Operations: %d\n", result.OutputStats.OperationCount)
	cliutil.Writef(w, "Schemas: %d -> %d\n", result.InputStats.SchemaCount, result.OutputStats.SchemaCount)
	cliutil.Writef(w, "Fetch Time: %v\n", result.FetchDuration)
	cliutil.Writef(w, "Total Time: %v\n\n", result.Duration)

	rows := make([][]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		rows = append(rows, []string{string(step), strconv.Itoa(result.StepCounts[step])})
	}
	cliutil.WriteTable(w, []string{"STEP", "FIXES"}, rows)
	cliutil.Writef(w, "\n")

	if verbose && result.FixCount > 0 {
		cliutil.Writef(w, "Fixes Applied (%d):\n", result.FixCount)
		for _, fix := range result.Fixes {
			cliutil.Writef(w, "  - [%s] %s: %s\n", fix.Type, fix.Path, fix.Description)
		}
		cliutil.Writef(w, "\n")
	}

	if len(result.Warnings) > 0 {
		cliutil.Writef(w, "Warnings (%d):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			cliutil.Writef(w, "  - %s\n", warning)
		}
		cliutil.Writef(w, "\n")
	}

	if result.Verification != nil {
		cliutil.Writef(w, "Verified: %s\n", result.Verification)
	}
	for _, change := range result.GeneratorChanges {
		cliutil.Writef(w, "Generator config: %s\n", change)
	}
	for _, path := range result.GeneratorFiles {
		cliutil.Writef(w, "Generator config written to: %s\n", path)
	}

	cliutil.Writef(w, "✓ Applied %d fix(es)", result.FixCount)
	if len(result.RenamedPaths) > 0 {
		cliutil.Writef(w, ", renamed %d %s", len(result.RenamedPaths), cliutil.Plural(len(result.RenamedPaths), "path"))
	}
	cliutil.Writef(w, "\n")
	if result.Written {
		cliutil.Writef(w, "\nOutput written to: %s\n", result.OutputPath)
	}
}
