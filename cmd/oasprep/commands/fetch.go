package commands

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erraggy/oasprep/document"
	"github.com/erraggy/oasprep/fetcher"
	"github.com/erraggy/oasprep/internal/cliutil"
	"github.com/erraggy/oasprep/internal/fileutil"
	"github.com/erraggy/oasprep/oaslog"
)

// FetchFlags contains flags for the fetch command
type FetchFlags struct {
	Config  string
	Output  string
	Timeout time.Duration
	Retries int
	Quiet   bool
	Verbose bool
}

// SetupFetchFlags creates and configures a FlagSet for the fetch command.
// Returns the FlagSet and a FetchFlags struct with bound flag variables.
func SetupFetchFlags() (*flag.FlagSet, *FetchFlags) {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	flags := &FetchFlags{}

	fs.StringVar(&flags.Config, "c", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Config, "config", "", "configuration file (default: ./oasprep.yaml when present)")
	fs.StringVar(&flags.Output, "o", "", "output file path, or '-' for stdout (default: ./openapi.json)")
	fs.StringVar(&flags.Output, "output", "", "output file path, or '-' for stdout (default: ./openapi.json)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "timeout for each attempt (default: 30s)")
	fs.IntVar(&flags.Retries, "retries", -1, "retries after a timeout or 5xx response (default: 1)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Verbose, "v", false, "verbose mode: debug logs")
	fs.BoolVar(&flags.Verbose, "verbose", false, "verbose mode: debug logs")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: oasprep fetch [flags] [url]\n\n")
		cliutil.Writef(fs.Output(), "Download an OpenAPI document and save the bytes unchanged.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  oasprep fetch\n")
		cliutil.Writef(fs.Output(), "  oasprep fetch -o linode.json https://example.com/openapi.json\n")
		cliutil.Writef(fs.Output(), "  oasprep fetch -o - | oasprep transform -o openapi.json -\n")
		cliutil.Writef(fs.Output(), "\nNotes:\n")
		cliutil.Writef(fs.Output(), "  - The URL defaults to the source in the configuration file\n")
		cliutil.Writef(fs.Output(), "  - The body must parse as JSON or YAML; nothing is written otherwise\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    Document saved\n")
		cliutil.Writef(fs.Output(), "  1    The fetch, parse, or write failed\n")
	}

	return fs, flags
}

// HandleFetch executes the fetch command
func HandleFetch(args []string) error {
	fs, flags := SetupFetchFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("fetch command accepts at most one URL")
	}

	cfg, _, err := LoadConfig(flags.Config)
	if err != nil {
		return err
	}
	source := cfg.Source
	if fs.NArg() == 1 {
		source = fs.Arg(0)
	}
	if !fetcher.IsURL(source) {
		return fmt.Errorf("fetch requires an http or https URL, got %q", source)
	}
	output := cfg.Output
	if flags.Output != "" {
		output = flags.Output
	}

	f := fetcher.New()
	f.Timeout = cfg.Fetch.Timeout
	f.Retries = cfg.Fetch.Retries
	f.RetryDelay = cfg.Fetch.RetryDelay
	f.UserAgent = cfg.Fetch.UserAgent
	if cfg.Fetch.MaxBodyBytes > 0 {
		f.MaxBodyBytes = cfg.Fetch.MaxBodyBytes
	}
	if flags.Timeout > 0 {
		f.Timeout = flags.Timeout
	}
	if flags.Retries >= 0 {
		f.Retries = flags.Retries
	}
	f.Logger = oaslog.NewSlogAdapter(NewLogger(os.Stderr, flags.Quiet, flags.Verbose))

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	data, err := f.FetchBytes(ctx, source)
	if err != nil {
		return err
	}
	doc, err := document.Parse(data, source)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if output == StdoutPath {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing document to stdout: %w", err)
		}
	} else {
		if err := fileutil.RejectSymlink(output); err != nil {
			return err
		}
		if err := fileutil.WriteFileAtomic(output, data, fileutil.OwnerReadWrite); err != nil {
			return err
		}
	}

	if !flags.Quiet {
		w := os.Stderr
		outputHeader(w, "OpenAPI Document Fetch", source)
		cliutil.Writef(w, "OAS Version: %s\n", doc.Version())
		stats := doc.Stats()
		cliutil.Writef(w, "Size: %d bytes\n", len(data))
		cliutil.Writef(w, "Paths: %d\n", stats.PathCount)
		cliutil.Writef(w, "Operations: %d\n", stats.OperationCount)
		cliutil.Writef(w, "Schemas: %d\n", stats.SchemaCount)
		cliutil.Writef(w, "Fetch Time: %v\n", elapsed)
		if output != StdoutPath {
			cliutil.Writef(w, "\nOutput written to: %s\n", output)
		}
	}
	return nil
}
